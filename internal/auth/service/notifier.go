package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/metrics"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

type EventType string

const (
	EventSignIn  EventType = "sign_in"
	EventSignOut EventType = "sign_out"
)

// Event is a session lifecycle notification.
type Event struct {
	Type      EventType
	UserID    string
	Provider  string
	IsNewUser bool
	At        time.Time
}

// Notifier receives lifecycle events. Notify must not block and must not
// fail the caller.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Sink is one consumer of events behind an AsyncNotifier.
type Sink interface {
	Handle(ctx context.Context, ev Event) error
}

type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

type queuedEvent struct {
	ctx context.Context
	ev  Event
}

// AsyncNotifier fans events out to its sinks on a single worker goroutine.
// When the queue is full, events are dropped and counted.
type AsyncNotifier struct {
	Logger *slog.Logger
	Sinks  []Sink

	// OnDrop, if set, is called for every dropped event.
	OnDrop func(Event)

	queue   chan queuedEvent
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

// NewAsyncNotifier creates a notifier with room for buffer queued events.
func NewAsyncNotifier(logger *slog.Logger, buffer int, sinks ...Sink) *AsyncNotifier {
	if buffer <= 0 {
		buffer = 256
	}
	return &AsyncNotifier{
		Logger: logger,
		Sinks:  sinks,
		queue:  make(chan queuedEvent, buffer),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (n *AsyncNotifier) Start() {
	go n.run()
}

// Stop delivers whatever is still queued, then returns.
func (n *AsyncNotifier) Stop() {
	n.once.Do(func() {
		n.stopped.Store(true)
		close(n.stopCh)
		<-n.doneCh
	})
}

func (n *AsyncNotifier) Notify(ctx context.Context, ev Event) {
	if n.stopped.Load() {
		n.drop(ev)
		return
	}

	// The request context ends with the response; keep its values only.
	select {
	case n.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), ev: ev}:
	default:
		n.drop(ev)
	}
}

func (n *AsyncNotifier) drop(ev Event) {
	n.Logger.Warn("notification dropped", slog.String("event", string(ev.Type)), slog.String("user_id", ev.UserID))
	if n.OnDrop != nil {
		n.OnDrop(ev)
	}
}

func (n *AsyncNotifier) run() {
	defer close(n.doneCh)

	for {
		select {
		case q := <-n.queue:
			n.deliver(q)
		case <-n.stopCh:
			for {
				select {
				case q := <-n.queue:
					n.deliver(q)
				default:
					return
				}
			}
		}
	}
}

func (n *AsyncNotifier) deliver(q queuedEvent) {
	for _, sink := range n.Sinks {
		if err := safeHandle(sink, q.ctx, q.ev); err != nil {
			n.Logger.Error("notification sink failed",
				slog.String("event", string(q.ev.Type)), slog.Any("error", err))
		}
	}
}

func safeHandle(sink Sink, ctx context.Context, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return sink.Handle(ctx, ev)
}

// LogSink writes sign-in and sign-out events to the request logger.
type LogSink struct{}

func (LogSink) Handle(ctx context.Context, ev Event) error {
	l := slogx.FromContext(ctx)
	switch ev.Type {
	case EventSignIn:
		l.Info("user signed in",
			slog.String("user_id", ev.UserID),
			slog.Bool("is_new_user", ev.IsNewUser),
			slog.String("provider", ev.Provider))
	case EventSignOut:
		l.Info("user signed out", slog.String("user_id", ev.UserID))
	}
	return nil
}

// MetricsSink counts events by type.
type MetricsSink struct {
	Metrics *metrics.Metrics
}

func (s MetricsSink) Handle(_ context.Context, ev Event) error {
	s.Metrics.SessionEventsTotal.WithLabelValues(string(ev.Type)).Inc()
	return nil
}
