package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, logging.LogLevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, logging.LogLevelWarn, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestSetOutput_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, logging.LogLevelInfo)
	t.Cleanup(func() { factory = disabledFactory{} })

	l := For(ScopeStream)
	l.Debug("hidden")
	l.Infof("session %s started", "abc")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "session abc started")
	require.Contains(t, buf.String(), "stream")
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genweb.log")
	closeLog, err := Init(path, "warn")
	require.NoError(t, err)

	For(ScopeTUI).Warn("careful")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "careful")
}

func TestInit_EmptyPathIsNoop(t *testing.T) {
	closeLog, err := Init("", "debug")
	require.NoError(t, err)
	closeLog()
}
