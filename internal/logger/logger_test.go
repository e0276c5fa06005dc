package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "addonctl.log")
	require.NoError(t, Init(path, false))
	defer Close()

	Info("Addons saved", "pushed", 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Addons saved")
	assert.Contains(t, string(data), "pushed=3")
}

func TestLeveledSatisfiesRetryableHTTP(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)

	var leveled retryablehttp.LeveledLogger = Leveled{L: l}
	leveled.Error("request failed", "url", "https://example.com")
	leveled.Debug("performing request")

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "request failed")
	assert.Contains(t, out, "performing request")
}

func TestGetBeforeInit(t *testing.T) {
	saved := Log
	Log = nil
	defer func() { Log = saved }()

	assert.NotNil(t, Get())
}
