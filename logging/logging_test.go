package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		opts Options
		want zapcore.Level
	}{
		{Options{}, zapcore.InfoLevel},
		{Options{Level: "warn"}, zapcore.WarnLevel},
		{Options{Level: "error", Format: "json"}, zapcore.ErrorLevel},
		{Options{Level: "warn", Verbose: true}, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		logger, err := New(tt.opts)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tt.want), "%+v", tt.opts)
		if tt.want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(tt.want-1), "%+v", tt.opts)
		}
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestJSONOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bifold.log")
	logger, err := New(Options{Format: "json", Paths: []string{path}})
	require.NoError(t, err)
	logger.Info("folded", zap.String("name", "u_dim3y_reid_d"), zap.Float64("vol", -1234.5))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "folded", entry["msg"])
	assert.Equal(t, "u_dim3y_reid_d", entry["name"])
	assert.Equal(t, -1234.5, entry["vol"])
}
