package changelog

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueFull is returned by Queue.Append when the buffer has no room.
var ErrQueueFull = errors.New("changelog: queue full")

// ErrQueueClosed is returned by Queue.Append after Close.
var ErrQueueClosed = errors.New("changelog: queue closed")

// Queue hands events to another Writer from a single goroutine, preserving
// the order in which they were appended. Append never blocks.
type Queue struct {
	next    Writer
	timeout time.Duration
	onError func(Event, error)

	mu     sync.RWMutex
	closed bool
	events chan Event
	done   chan struct{}
}

// NewQueue starts a queue of up to size events in front of next. Each
// delivery gets its own context bounded by timeout (unbounded when zero).
// onError, if not nil, receives every event next failed to accept.
func NewQueue(next Writer, size int, timeout time.Duration, onError func(Event, error)) *Queue {
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		next:    next,
		timeout: timeout,
		onError: onError,
		events:  make(chan Event, size),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Append buffers e for delivery. It fails with ErrQueueFull instead of
// waiting for room.
func (q *Queue) Append(_ context.Context, e Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.events <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending reports the number of events not yet handed to the next writer.
func (q *Queue) Pending() int { return len(q.events) }

// Close stops accepting events and waits until the buffered ones are
// delivered or ctx is done.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for e := range q.events {
		ctx, cancel := context.Background(), context.CancelFunc(func() {})
		if q.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, q.timeout)
		}
		err := q.next.Append(ctx, e)
		cancel()
		if err != nil && q.onError != nil {
			q.onError(e, err)
		}
	}
}
