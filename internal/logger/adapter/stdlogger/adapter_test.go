package stdlogger_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoVCL/GoVCL/internal/logger"
	"github.com/GoVCL/GoVCL/internal/logger/adapter/stdlogger"
)

func TestAdapter(t *testing.T) {
	testCases := []struct {
		name             string
		cfg              logger.Log
		shouldHaveOutPut bool
	}{
		{
			name:             "no logger enabled log level not set",
			cfg:              logger.Log{ServiceName: "test", AppName: "test"},
			shouldHaveOutPut: false,
		},
		{
			name: "console enabled log level info",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true},
			},
			shouldHaveOutPut: true,
		},
		{
			name: "console enabled console writer enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			shouldHaveOutPut: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := capture(t, tc.cfg, func() {
				l := stdlogger.New()
				l.Debugf("stdlogger %s", "test debug")
				l.Infof("stdlogger %s", "test info")
				l.Warningf("stdlogger %s", "test warning")
				l.Errorf("stdlogger %s", "test error")
			})

			if tc.shouldHaveOutPut {
				assert.Contains(t, out, "test info")
				assert.NotContains(t, out, "test debug")
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestStdBridge(t *testing.T) {
	out := capture(t, logger.Log{
		LogLevel:    "debug",
		ServiceName: "test",
		AppName:     "test",
		Console:     logger.Console{Enabled: true},
	}, func() {
		stdlogger.NewComponent("ldap").Std().Printf("dial %s", "ldap.example.org:636")
	})

	assert.Contains(t, out, "dial ldap.example.org:636")
	assert.Contains(t, out, `"component":"ldap"`)
}

func TestPrintfIsInfo(t *testing.T) {
	out := capture(t, logger.Log{
		LogLevel:    "info",
		ServiceName: "test",
		AppName:     "test",
		Console:     logger.Console{Enabled: true},
	}, func() {
		stdlogger.NewComponent("gorm").Printf("slow sql %dms", 250)
	})

	assert.Contains(t, out, "slow sql 250ms")
	assert.Contains(t, out, `"level":"info"`)
}

func capture(t *testing.T, cfg logger.Log, fn func()) string {
	t.Helper()

	stdout, stderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout, os.Stderr = w, w

	require.NoError(t, logger.Init(cfg))
	fn()

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout, os.Stderr = stdout, stderr

	return <-outC
}
