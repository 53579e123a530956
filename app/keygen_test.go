package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoVCL/GoVCL/internal/auth"
)

func TestWriteKeyPair(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	priv, pub, err := writeKeyPair(dir, auth.MinKeyBits, false)
	require.NoError(t, err)

	info, err := os.Stat(priv)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	keys, err := auth.LoadKeyPair(priv, pub)
	require.NoError(t, err)
	assert.Equal(t, auth.MinKeyBits, keys.Private.N.BitLen())

	_, _, err = writeKeyPair(dir, auth.MinKeyBits, false)
	assert.Error(t, err, "existing keys need --force")

	_, _, err = writeKeyPair(dir, auth.MinKeyBits, true)
	assert.NoError(t, err)
}

func TestWriteKeyPairTooSmall(t *testing.T) {
	_, _, err := writeKeyPair(t.TempDir(), 1024, false)
	assert.ErrorIs(t, err, auth.ErrKeyTooSmall)
}

func TestConfigDump(t *testing.T) {
	projectRoot, err := filepath.Abs("..")
	require.NoError(t, err)

	configPath = filepath.Join(projectRoot, "etc") + string(filepath.Separator)
	dumpJSON = true

	t.Cleanup(func() { dumpJSON = false })

	var out bytes.Buffer
	configDumpCmd.SetOut(&out)

	require.NoError(t, configDumpCmd.RunE(configDumpCmd, nil))
	assert.Contains(t, out.String(), `"Title": "Virtual Computing Lab"`)
}
