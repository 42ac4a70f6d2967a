package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestActivity(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := Wrap(zap.New(core))

	logger.Activity("delete", "Path: docs/a.txt", zap.String("client", "10.0.0.1"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "activity", entries[0].LoggerName)
	assert.Equal(t, "delete", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Path: docs/a.txt", fields["detail"])
	assert.Equal(t, "10.0.0.1", fields["client"])
}

func TestEncodingFormat(t *testing.T) {
	assert.Equal(t, "console", encodingFormat(true))
	assert.Equal(t, "json", encodingFormat(false))
	assert.Equal(t, "message", encoderConfig(false).MessageKey)
}

func TestActivityFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	logger, err := New(Config{Level: "error", ActivityPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("not in the activity file")
	logger.Activity("upload", "Path: inbox, File: a.txt")
	require.NoError(t, logger.activity.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"message":"upload"`)
	assert.Contains(t, lines[0], `"detail":"Path: inbox, File: a.txt"`)
	assert.Contains(t, lines[0], `"logger":"activity"`)
}

func TestParseLevelEmpty(t *testing.T) {
	level, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
}
