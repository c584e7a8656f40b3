package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const deliverTimeout = 5 * time.Second

// Dispatcher queues events in a bounded buffer and delivers them to a Sink
// from a single background goroutine. When the buffer is full new events
// are dropped and logged.
type Dispatcher struct {
	sink   Sink
	logger *zap.Logger
	queue  chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(sink Sink, bufferSize int, logger *zap.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	go d.run()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := d.sink.Deliver(ctx, e); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("type", string(e.Type)),
				zap.String("user_id", e.UserID.String()),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (d *Dispatcher) Notify(_ context.Context, e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- e:
	default:
		d.logger.Warn("notification buffer full, dropping event",
			zap.String("type", string(e.Type)),
			zap.String("user_id", e.UserID.String()),
		)
	}
}

// Stop closes the queue and waits until queued events are delivered or ctx
// expires. Events notified after Stop are discarded.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
