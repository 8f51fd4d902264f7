package observability

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("pos-producer", &buf)

	logger.Warn("Attempt 1/5 failed", map[string]any{"attempt": 1})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, LogLevelWARN, entry.Level)
	assert.Equal(t, "Attempt 1/5 failed", entry.Message)
	assert.Equal(t, "pos-producer", entry.Service)
	assert.Equal(t, float64(1), entry.Metadata["attempt"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestErrorIncludesMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("pos-producer", &buf)

	logger.Error("Failed to send", errors.New("délai dépassé"), nil)

	output := buf.String()
	assert.Contains(t, output, `"level":"ERROR"`)
	assert.Contains(t, output, `"error":"délai dépassé"`)
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger("pos-producer", &buf)

	logger.Info("Sent", map[string]any{
		"topic":  "transactions",
		"record": map[string]any{"product_id": 103},
	})

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "✅ Sent")
	assert.Contains(t, line, "topic=transactions")
	assert.Contains(t, line, "product_id")
	assert.Contains(t, line, "103")
}

func TestLogEventComputesSize(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("pos-producer", &buf)

	logger.LogEvent(EventEntry{
		EventType:  "record.sent",
		KafkaTopic: "transactions",
		RawMessage: `{"a":1}`,
		Delivered:  true,
	})

	var event EventEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, 7, event.MessageSize)
	assert.True(t, event.Delivered)
	assert.NotEmpty(t, event.Timestamp)
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "producer.events")

	logger, err := NewFileLogger("pos-producer", path)
	require.NoError(t, err)
	logger.LogEvent(EventEntry{EventType: "record.sent"})
	logger.LogEvent(EventEntry{EventType: "record.failed"})
	logger.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("rien", nil)
		logger.LogEvent(EventEntry{})
		logger.Close()
	})
}
