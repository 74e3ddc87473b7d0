package bodyscan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkGateTryEnterExclusive(t *testing.T) {
	gate := NewWorkGate()
	const workers = 64

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if gate.TryEnter() {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.False(t, gate.TryEnter(), "gate must stay occupied until Exit")
	gate.Exit()
	assert.True(t, gate.TryEnter(), "gate must be free after Exit")
	gate.Exit()
}

func TestWorkGateEnterBlocksUntilExit(t *testing.T) {
	gate := NewWorkGate()
	require.True(t, gate.TryEnter())

	entered := make(chan struct{})
	go func() {
		gate.Enter()
		close(entered)
	}()

	select {
	case <-entered:
		t.Fatal("Enter returned while the gate was occupied")
	case <-time.After(50 * time.Millisecond):
	}

	gate.Exit()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("Enter did not return after Exit")
	}
	assert.False(t, gate.TryEnter(), "Enter must occupy the gate")
	gate.Exit()
}

func TestWorkGateEnterContext(t *testing.T) {
	gate := NewWorkGate()
	gate.Enter()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := gate.EnterContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	gate.Exit()
	require.NoError(t, gate.EnterContext(context.Background()))
	gate.Exit()
}

func TestWorkGateExitWithoutEntryPanics(t *testing.T) {
	gate := NewWorkGate()
	assert.Panics(t, func() {
		gate.Exit()
	})
}
