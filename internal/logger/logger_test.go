package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"nonsense", zapcore.InfoLevel},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, ParseLevel(test.input), "уровень %q", test.input)
	}
}

func TestNewWithoutOutputsIsNop(t *testing.T) {
	log, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jukebox.log")

	log, err := New(Config{Level: "info", OutputPath: path, MaxSize: 1})
	require.NoError(t, err)

	log.Debug("скрытое сообщение")
	log.Info("трек добавлен", zap.String("title", "Song"))
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(raw)
	assert.True(t, strings.Contains(content, `"title":"Song"`))
	assert.False(t, strings.Contains(content, "скрытое сообщение"))
}

func TestNewConsoleOnly(t *testing.T) {
	log, err := New(Config{Level: "warn", Console: true})
	require.NoError(t, err)

	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
}
