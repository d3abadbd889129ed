// Package queue implements the broker's bounded FIFO.
//
// The buffer is a fixed ring guarded by a mutex, with two counting semaphores
// tracking free and filled slots. Producers block while the ring is full and
// consumers block while it is empty; waiting is never a busy loop.
package queue

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/protocol"
)

// DefaultCapacity is the ring size used when none is configured.
const DefaultCapacity = 10

// Queue is a blocking bounded FIFO of protocol messages.
// It is safe for any number of concurrent producers and consumers.
type Queue struct {
	mu    sync.Mutex
	slots []protocol.Message
	head  int
	count int

	free   *semaphore.Weighted
	filled *semaphore.Weighted
}

// New creates a queue holding at most capacity messages.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{
		slots:  make([]protocol.Message, capacity),
		free:   semaphore.NewWeighted(int64(capacity)),
		filled: semaphore.NewWeighted(int64(capacity)),
	}
	// filled starts at zero available units
	q.filled.TryAcquire(int64(capacity))
	return q
}

// Enqueue appends m, blocking until a slot is free. It fails only when ctx is
// done before a slot opens, in which case the queue is unchanged.
func (q *Queue) Enqueue(ctx context.Context, m protocol.Message) error {
	if err := q.free.Acquire(ctx, 1); err != nil {
		return err
	}

	q.mu.Lock()
	tail := (q.head + q.count) % len(q.slots)
	q.slots[tail] = m
	q.count++
	q.mu.Unlock()

	q.filled.Release(1)
	return nil
}

// Dequeue removes the oldest message, blocking until one exists. It fails
// only when ctx is done first.
func (q *Queue) Dequeue(ctx context.Context) (protocol.Message, error) {
	if err := q.filled.Acquire(ctx, 1); err != nil {
		return protocol.Message{}, err
	}

	q.mu.Lock()
	m := q.slots[q.head]
	q.slots[q.head] = protocol.Message{}
	q.head = (q.head + 1) % len(q.slots)
	q.count--
	q.mu.Unlock()

	q.free.Release(1)
	return m, nil
}

// PushFront puts m back at the head, ahead of every queued message, for a
// consumer that could not hand it on. It blocks like Enqueue while the queue
// is full.
func (q *Queue) PushFront(ctx context.Context, m protocol.Message) error {
	if err := q.free.Acquire(ctx, 1); err != nil {
		return err
	}

	q.mu.Lock()
	q.head = (q.head - 1 + len(q.slots)) % len(q.slots)
	q.slots[q.head] = m
	q.count++
	q.mu.Unlock()

	q.filled.Release(1)
	return nil
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.slots)
}
