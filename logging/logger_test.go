package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func TestNewLogger_TextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "key=value")
}

func TestNewLogger_JSONDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.Info("event", "key", "value")

	out := buf.String()
	assert.Contains(t, out, `"msg":"event"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestNoOpLogger(t *testing.T) {
	// Must simply not panic.
	logger := NoOpLogger{}
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e", "key", "value")
}
