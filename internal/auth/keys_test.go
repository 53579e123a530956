package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeyPair(t *testing.T) {
	kp, other := keys(t)
	dir := t.TempDir()

	privPEM, pubPEM, err := kp.MarshalPEM()
	require.NoError(t, err)

	_, otherPub, err := other.MarshalPEM()
	require.NoError(t, err)

	privPath := filepath.Join(dir, "auth.key")
	pubPath := filepath.Join(dir, "auth.pub")
	otherPath := filepath.Join(dir, "other.pub")
	garbage := filepath.Join(dir, "garbage")

	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o600))
	require.NoError(t, os.WriteFile(otherPath, otherPub, 0o600))
	require.NoError(t, os.WriteFile(garbage, []byte("hello"), 0o600))

	loaded, err := LoadKeyPair(privPath, pubPath)
	require.NoError(t, err)
	assert.True(t, loaded.Public.Equal(kp.Public))

	derived, err := LoadKeyPair(privPath, "")
	require.NoError(t, err)
	assert.True(t, derived.Public.Equal(kp.Public))

	_, err = LoadKeyPair(privPath, otherPath)
	require.ErrorIs(t, err, ErrKeyMismatch)

	_, err = LoadKeyPair(garbage, "")
	require.ErrorIs(t, err, ErrNoPEMBlock)

	_, err = LoadKeyPair(filepath.Join(dir, "missing"), "")
	require.Error(t, err)
}

func TestNewKeyPairTooSmall(t *testing.T) {
	small, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	_, err = NewKeyPair(small)
	require.ErrorIs(t, err, ErrKeyTooSmall)
}
