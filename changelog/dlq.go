package changelog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DeadLetterQueue parks events that could not be published in Redis under
// "<prefix>:<type>:<transaction id>" for later replay.
type DeadLetterQueue struct {
	client *redis.Client
	prefix string
}

// NewDeadLetterQueue stores events under prefix, "pos-failed-events" when empty.
func NewDeadLetterQueue(client *redis.Client, prefix string) *DeadLetterQueue {
	if prefix == "" {
		prefix = "pos-failed-events"
	}
	return &DeadLetterQueue{client: client, prefix: prefix}
}

// Connect connects to the redis server and verifies it with a ping.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (q *DeadLetterQueue) Append(ctx context.Context, e Event) error {
	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	key := fmt.Sprintf("%s:%s", q.prefix, e.Key())
	if err := q.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Fallback appends to primary and, when that fails, to secondary.
type Fallback struct {
	primary   Writer
	secondary Writer
	logger    *zap.Logger
}

// NewFallback appends to secondary whenever primary fails.
func NewFallback(primary, secondary Writer, logger *zap.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Append(ctx context.Context, e Event) error {
	err := f.primary.Append(ctx, e)
	if err == nil {
		return nil
	}
	f.logger.Warn("primary feed append failed, using fallback",
		zap.String("event", e.Key()), zap.Error(err))
	if ferr := f.secondary.Append(ctx, e); ferr != nil {
		return fmt.Errorf("primary: %v; fallback: %w", err, ferr)
	}
	return nil
}
