package bodyscan

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// WorkGate is a binary, non-reentrant admission gate.
// It bounds heavy frame processing to a single in-flight task: the frame arrival
// callback uses TryEnter and drops frames while the gate is busy, teardown uses Enter
// and waits for the running task to finish.
type WorkGate struct {
	sem *semaphore.Weighted
}

// NewWorkGate creates free gate
func NewWorkGate() *WorkGate {
	return &WorkGate{
		sem: semaphore.NewWeighted(1),
	}
}

// TryEnter occupies the gate if it is free. It never blocks.
func (gate *WorkGate) TryEnter() bool {
	return gate.sem.TryAcquire(1)
}

// Enter blocks until the gate is free and then occupies it
func (gate *WorkGate) Enter() {
	// Acquire on a background context only fails when the context is done
	_ = gate.sem.Acquire(context.Background(), 1)
}

// EnterContext is Enter which gives up when ctx is done.
func (gate *WorkGate) EnterContext(ctx context.Context) error {
	return gate.sem.Acquire(ctx, 1)
}

// Exit frees the gate. Calling Exit without a matching successful entry panics.
func (gate *WorkGate) Exit() {
	gate.sem.Release(1)
}
