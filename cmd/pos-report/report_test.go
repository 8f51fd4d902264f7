package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-simulator/internal/observability"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestAnalyzeProducerTrail(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "pos-producer.events")

	var buf bytes.Buffer
	audit := observability.NewLogger("pos-producer", &buf)
	audit.LogEvent(observability.EventEntry{
		EventType: "record.sent",
		Delivered: true,
		Record:    []byte(`{"transaction_id":"a","product_id":103,"store_id":1,"quantity":2,"price":999.98,"payment_method":"Cash","timestamp":"2024-05-17T10:30:00Z"}`),
	})
	audit.LogEvent(observability.EventEntry{
		EventType:  "record.sent",
		Delivered:  true,
		Corruption: "null_field",
		Record:     []byte(`{"transaction_id":null,"product_id":103,"store_id":2,"quantity":null,"price":999.98,"payment_method":null,"timestamp":"2024-05-17T10:30:00Z"}`),
	})
	audit.LogEvent(observability.EventEntry{EventType: "record.failed", Error: "timeout"})
	require.NoError(t, os.WriteFile(events, buf.Bytes(), 0o644))

	stats, err := analyze("", events)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Attempts)
	assert.Equal(t, 2, stats.Delivered)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Corruptions["clean"])
	assert.Equal(t, 1, stats.Corruptions["null_field"])
	// Seules les ventes propres et acquittées comptent.
	assert.InDelta(t, 999.98, stats.Revenue, 1e-9)
	assert.Equal(t, 1, stats.Stores[1])
	assert.Equal(t, 1, stats.Payments["Cash"])
	assert.InDelta(t, 100.0/3, stats.CorruptionRate(), 1e-9)
}

func TestAnalyzeInspectorTrailAndLogs(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "pos-inspector.events")
	logs := filepath.Join(dir, "pos-inspector.log")

	writeLines(t, events,
		`{"event_type":"record.received","issues":[],"record":{"transaction_id":"a"}}`,
		`{"event_type":"record.received.invalid","issues":["quantity:wrong_type"],"record":{"quantity":"invalid"}}`,
		`{"event_type":"record.received.invalid","issues":["payload:malformed_json"]}`,
		`pas du json`,
	)
	writeLines(t, logs,
		`{"timestamp":"t1","level":"INFO","message":"Transaction conforme","service":"pos-inspector"}`,
		`{"timestamp":"t2","level":"WARN","message":"Transaction non conforme","service":"pos-inspector"}`,
		`{"timestamp":"t3","level":"ERROR","message":"Lecture Kafka impossible","service":"pos-inspector","error":"boom"}`,
	)

	stats, err := analyze(logs, events)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Received)
	assert.Equal(t, 2, stats.Invalid)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, stats.Issues["quantity:wrong_type"])
	assert.Equal(t, 3, stats.TotalLogs)
	assert.Equal(t, 1, stats.WarnLogs)
	require.Len(t, stats.LastErrors, 1)
	assert.Equal(t, "boom", stats.LastErrors[0].Error)
}

func TestAnalyzeMissingFiles(t *testing.T) {
	stats, err := analyze(filepath.Join(t.TempDir(), "absent.log"), "")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalLogs)
	assert.Zero(t, stats.DeliveryRate())
}

func TestRenderSections(t *testing.T) {
	stats := newStats()
	stats.Attempts = 4
	stats.Delivered = 3
	stats.Corruptions["clean"] = 3
	stats.Corruptions["invalid_type"] = 1
	stats.LastErrors = []observability.LogEntry{{Timestamp: "t", Message: "Échec d'envoi", Error: "timeout"}}

	var out bytes.Buffer
	render(&out, stats, 80, "12:00:00")

	text := out.String()
	assert.Contains(t, text, "RAPPORT POS SIMULATOR")
	assert.Contains(t, text, "4 tentatives, 3 acquittés")
	assert.Contains(t, text, "invalid_type")
	assert.Contains(t, text, "Dernières erreurs")
}

var ansi = regexp.MustCompile("\x1b\\[[0-9;?]*[A-Za-z]")

func TestDrawBoxBordersAligned(t *testing.T) {
	for _, width := range []int{60, 80, 120} {
		var out bytes.Buffer
		drawBox(&out, []string{"ligne"}, "Répartition des corruptions", width, colorYellow)

		lines := strings.Split(strings.TrimRight(ansi.ReplaceAllString(out.String(), ""), "\n"), "\n")
		require.Len(t, lines, 3)
		top := []rune(lines[0])
		bottom := []rune(lines[2])
		assert.Equal(t, len(bottom), len(top), "largeur %d", width)
		assert.Equal(t, width+2, len(bottom))
		assert.Equal(t, '┐', top[len(top)-1])
	}
}
