package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitializeWritesJSONToFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { SetLogger(prev) })

	path := filepath.Join(t.TempDir(), "premium.log")
	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", Output: path}))

	Named("risk").Debug("vehicle index", zap.Float64("index", 0.42))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"risk"`)
	assert.Contains(t, string(data), `"index":0.42`)
}

func TestInitializeFallsBackOnBadLevel(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { SetLogger(prev) })

	require.NoError(t, Initialize(Config{Level: "loud", Format: "console", Output: "stderr"}))
	assert.NotNil(t, Logger)
	assert.NotNil(t, Sugar)
}
