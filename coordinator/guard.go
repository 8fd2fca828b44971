package coordinator

import "context"

// Guard is the process-wide exclusive lock serializing purchases and refunds.
//
// Waiting for the guard can be abandoned through the context. Once acquired,
// the holder runs to completion and releases it; there is no cancellation
// while held.
type Guard struct {
	sem chan struct{}
}

// NewGuard returns an unheld guard.
func NewGuard() *Guard {
	return &Guard{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the guard is held or ctx is done. The returned func
// releases the guard and must be called exactly once.
func (g *Guard) Acquire(ctx context.Context) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case g.sem <- struct{}{}:
		return g.release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Guard) release() {
	<-g.sem
}
