package bodyscan

import (
	"sync"
)

// Dispatcher delivers a notification to the context that owns the listeners.
// It must not block the caller for long: notifications are raised from frame processing goroutines.
type Dispatcher func(notify func())

// InlineDispatcher runs notification on the calling goroutine
func InlineDispatcher(notify func()) {
	notify()
}

// SerialDispatcher runs notifications one by one, in order, on a single goroutine.
// It is the analogue of posting to a UI thread.
type SerialDispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	stopped chan struct{}
}

// NewSerialDispatcher starts dispatch goroutine
func NewSerialDispatcher() *SerialDispatcher {
	d := &SerialDispatcher{
		stopped: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

// Dispatch enqueues notification. After Close notifications are dropped
func (d *SerialDispatcher) Dispatch(notify func()) {
	d.mu.Lock()
	if !d.closed {
		d.queue = append(d.queue, notify)
		d.cond.Signal()
	}
	d.mu.Unlock()
}

// Close runs already queued notifications and stops dispatch goroutine
func (d *SerialDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.stopped
		return
	}
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	<-d.stopped
}

func (d *SerialDispatcher) loop() {
	defer close(d.stopped)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 {
			if d.closed {
				d.mu.Unlock()
				return
			}
			d.cond.Wait()
		}
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, notify := range batch {
			notify()
		}
	}
}

// handlers is a list of subscribed callbacks
type handlers struct {
	mu   sync.RWMutex
	list []func()
}

func (h *handlers) add(fn func()) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.list = append(h.list, fn)
	h.mu.Unlock()
}

func (h *handlers) raise(dispatch Dispatcher) {
	h.mu.RLock()
	list := make([]func(), len(h.list))
	copy(list, h.list)
	h.mu.RUnlock()
	if len(list) == 0 {
		return
	}
	dispatch(func() {
		for _, fn := range list {
			fn()
		}
	})
}
