package events

import (
	"context"
	"errors"
	"sync"

	"ChainGate/internal/gate"
)

// MemoryQueue moves events over a channel, mainly for tests and single
// process deployments.
type MemoryQueue struct {
	ch     chan gate.DecisionEvent
	mu     sync.Mutex
	closed bool
}

// NewMemoryQueue creates a buffered in-memory queue.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{ch: make(chan gate.DecisionEvent, size)}
}

// Publish implements Publisher.
func (q *MemoryQueue) Publish(ctx context.Context, event gate.DecisionEvent) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return errors.New("queue is closed")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- event:
		return nil
	}
}

// Consume implements Consumer, draining the channel with workerCount
// goroutines until the context is cancelled.
func (q *MemoryQueue) Consume(ctx context.Context, workerCount int, handler Handler) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-q.ch:
					if !ok {
						return
					}
					_ = handler(ctx, event)
				}
			}
		}()
	}
	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// Close implements Queue.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if !q.closed {
		close(q.ch)
		q.closed = true
	}
	q.mu.Unlock()
	return nil
}

var _ Queue = (*MemoryQueue)(nil)
