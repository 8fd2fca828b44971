// Package changelog publishes committed purchases and refunds to downstream
// consumers. Events are appended after the storage commit; a failed append
// never undoes a commit.
package changelog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
)

// EventType names the mutation an Event records.
type EventType string

const (
	EventPurchase EventType = "purchase"
	EventRefund   EventType = "refund"
)

// Event describes one committed mutation.
type Event struct {
	Type          EventType         `json:"type"`
	TransactionID int64             `json:"transaction_id"`
	CardID        string            `json:"credit_card_id"`
	Items         []models.CartItem `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	At            time.Time         `json:"at"`
}

// Key identifies the event; refunds and purchases of one transaction differ.
func (e Event) Key() string {
	return fmt.Sprintf("%s:%d", e.Type, e.TransactionID)
}

// Writer appends events to a sink.
type Writer interface {
	Append(ctx context.Context, e Event) error
}

// MultiWriter fans out writes to multiple underlying writers, stopping at
// the first failure.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter appends to every writer in ws, in order.
func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Append stops at the first writer that fails.
func (m *MultiWriter) Append(ctx context.Context, e Event) error {
	for _, w := range m.writers {
		if err := w.Append(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of underlying writers.
func (m *MultiWriter) Len() int { return len(m.writers) }

// FileWriter appends events as JSON lines.
type FileWriter struct {
	mu   sync.Mutex
	path string
}

// NewFileWriter creates the parent directory of path if needed.
func NewFileWriter(path string) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &FileWriter{path: path}, nil
}

func (w *FileWriter) Append(_ context.Context, e Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(&e); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// KafkaWriter publishes events to a Kafka topic keyed by Event.Key.
type KafkaWriter struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter creates a synchronous writer requiring acks from all
// in-sync replicas. Single events are flushed without waiting for a batch.
func NewKafkaWriter(brokers []string, topic string) *KafkaWriter {
	var addrs []string
	for _, b := range brokers {
		b = strings.TrimSpace(b)
		if b != "" {
			addrs = append(addrs, b)
		}
	}
	return &KafkaWriter{writer: &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 2 * time.Second,
		ReadTimeout:  2 * time.Second,
		MaxAttempts:  3,
	}}
}

// Append publishes e as JSON keyed by e.Key().
func (k *KafkaWriter) Append(ctx context.Context, e Event) error {
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.Key()), Value: b})
}

// Close flushes and closes the underlying kafka.Writer.
func (k *KafkaWriter) Close() error {
	if c, ok := k.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// NewKafkaWriterWith is only for tests to inject a fake writer.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w}
}
