package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"

	"pos-simulator/internal/catalog"
	"pos-simulator/internal/observability"
)

func newMessage(offset kafka.Offset, value string) *kafka.Message {
	topic := "transactions"
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: 0, Offset: offset},
		Value:          []byte(value),
		Timestamp:      time.Now(),
	}
}

// TestInspectCleanRecord verifies that a well-formed transaction is audited and logged as conforming.
func TestInspectCleanRecord(t *testing.T) {
	var logBuf, eventBuf bytes.Buffer
	logger := observability.NewLogger("pos-inspector", &logBuf)
	audit := observability.NewLogger("pos-inspector", &eventBuf)

	msg := newMessage(101, `{"transaction_id":"5b6c7d8e-1111-4222-8333-944455556666","product_id":103,"store_id":1,"quantity":2,"price":999.98,"payment_method":"Cash","timestamp":"2024-05-17T10:30:00Z"}`)

	report := inspect(msg, catalog.Default(), logger, audit)

	assert.True(t, report.Clean())
	assert.Contains(t, eventBuf.String(), `"event_type":"record.received"`)
	assert.Contains(t, eventBuf.String(), `"kafka_offset":101`)
	assert.Contains(t, logBuf.String(), "Transaction conforme")
}

// TestInspectCorruptedRecord verifies that violations reach both the audit trail and the system log.
func TestInspectCorruptedRecord(t *testing.T) {
	var logBuf, eventBuf bytes.Buffer
	logger := observability.NewLogger("pos-inspector", &logBuf)
	audit := observability.NewLogger("pos-inspector", &eventBuf)

	msg := newMessage(102, `{"transaction_id":null,"product_id":103,"store_id":1,"quantity":null,"price":999.98,"payment_method":null,"timestamp":"2024-05-17T10:30:00Z"}`)

	report := inspect(msg, catalog.Default(), logger, audit)

	assert.False(t, report.Clean())
	events := eventBuf.String()
	assert.Contains(t, events, `"event_type":"record.received.invalid"`)
	assert.Contains(t, events, "quantity:null")
	assert.True(t, strings.Contains(logBuf.String(), `"level":"WARN"`))
}

// TestInspectMalformedPayload verifies that non-JSON payloads are audited without a record copy.
func TestInspectMalformedPayload(t *testing.T) {
	var logBuf, eventBuf bytes.Buffer
	logger := observability.NewLogger("pos-inspector", &logBuf)
	audit := observability.NewLogger("pos-inspector", &eventBuf)

	report := inspect(newMessage(103, `{"invalid-json"`), catalog.Default(), logger, audit)

	assert.False(t, report.Clean())
	assert.NotContains(t, eventBuf.String(), `"record":`)
	assert.Contains(t, eventBuf.String(), "malformed_json")
}

func TestInspectWithoutAuditFile(t *testing.T) {
	var logBuf bytes.Buffer
	logger := observability.NewLogger("pos-inspector", &logBuf)

	assert.NotPanics(t, func() {
		inspect(newMessage(104, `{}`), catalog.Default(), logger, nil)
	})
}
