package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// DispatcherConfig holds settings for Dispatcher.
type DispatcherConfig struct {
	Handler Handler

	// QueueSize bounds pending events per user (default: 16).
	QueueSize int

	Logger zerolog.Logger
}

// Dispatcher runs events for the same user one at a time in arrival order.
// Each user with pending events gets a worker goroutine that exits once the
// user's queue drains; different users are handled concurrently.
type Dispatcher struct {
	ctx       context.Context
	handler   Handler
	queueSize int
	logger    zerolog.Logger

	mu     sync.Mutex
	queues map[int64]chan Event
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. ctx is passed to every Handle call.
func NewDispatcher(ctx context.Context, cfg DispatcherConfig) *Dispatcher {
	size := cfg.QueueSize
	if size <= 0 {
		size = 16
	}

	return &Dispatcher{
		ctx:       ctx,
		handler:   cfg.Handler,
		queueSize: size,
		logger:    cfg.Logger,
		queues:    make(map[int64]chan Event),
	}
}

// Submit queues ev for its user. It returns false when the dispatcher is
// closed or the user's queue is full.
func (d *Dispatcher) Submit(ev Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	q, ok := d.queues[ev.UserID]
	if !ok {
		q = make(chan Event, d.queueSize)
		d.queues[ev.UserID] = q
		d.wg.Add(1)
		go d.work(ev.UserID, q)
	}

	select {
	case q <- ev:
		return true
	default:
		d.logger.Warn().Int64("user_id", ev.UserID).Str("event", ev.Kind.String()).Msg("user queue full; event dropped")
		return false
	}
}

func (d *Dispatcher) work(userID int64, q chan Event) {
	defer d.wg.Done()

	for {
		select {
		case ev := <-q:
			d.handle(ev)
		default:
			// Submit sends under the same lock, so an empty queue here
			// cannot receive another event for this worker.
			d.mu.Lock()
			if len(q) == 0 {
				delete(d.queues, userID)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
		}
	}
}

func (d *Dispatcher) handle(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Int64("user_id", ev.UserID).
				Str("event", ev.Kind.String()).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()

	if err := d.handler.Handle(d.ctx, ev); err != nil {
		d.logger.Warn().Err(err).Int64("user_id", ev.UserID).Str("event", ev.Kind.String()).Msg("event handling failed")
	}
}

// Close stops accepting events and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
}
