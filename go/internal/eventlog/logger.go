package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

type entry struct {
	event   models.Event
	details map[string]any
}

// Logger queues events in memory and writes them to its sinks from a single
// worker goroutine. Log never blocks: when the queue is full the event is
// dropped and counted.
type Logger struct {
	sinks   []Sink
	config  Config
	clock   clockwork.Clock
	metrics MetricsCollector

	queue chan entry

	mu       sync.Mutex
	running  bool
	closed   atomic.Bool
	stopChan chan struct{}
	done     chan struct{}

	dropped atomic.Uint64
	written atomic.Uint64
	failed  atomic.Uint64
}

func NewLogger(cfg Config, clock clockwork.Clock, metrics MetricsCollector, sinks ...Sink) *Logger {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &Logger{
		sinks:    sinks,
		config:   cfg,
		clock:    clock,
		metrics:  metrics,
		queue:    make(chan entry, cfg.BufferSize),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (l *Logger) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return fmt.Errorf("event logger already running")
	}
	if l.closed.Load() {
		return fmt.Errorf("event logger closed")
	}
	l.running = true

	go l.run(ctx)

	names := make([]string, 0, len(l.sinks))
	for _, s := range l.sinks {
		names = append(names, s.Name())
	}
	log.Info().
		Strs("sinks", names).
		Int("buffer_size", l.config.BufferSize).
		Int("batch_size", l.config.BatchSize).
		Msg("event logger started")
	return nil
}

// Log enqueues an event. It is safe to call while holding other locks.
func (l *Logger) Log(kind models.LogKind, event string, details map[string]any, user string) {
	if l.closed.Load() {
		l.drop(kind, event, "event logger closed")
		return
	}

	e := entry{
		event: models.Event{
			ID:         uuid.New(),
			OccurredAt: l.clock.Now().UTC(),
			Kind:       kind,
			Name:       event,
		},
		details: details,
	}
	if user != "" {
		e.event.User = &user
	}

	select {
	case l.queue <- e:
		l.metrics.RecordLogged(kind)
	default:
		l.drop(kind, event, "event log queue full")
	}
}

func (l *Logger) drop(kind models.LogKind, event, reason string) {
	n := l.dropped.Add(1)
	l.metrics.RecordDropped()
	// Only the first drop and every 100th after it are reported.
	if n == 1 || n%100 == 0 {
		log.Warn().
			Str("log_type", string(kind)).
			Str("event", event).
			Uint64("dropped_total", n).
			Msg(reason + ", dropping event")
	}
}

// Close stops accepting events and flushes what is queued. It returns
// ctx.Err() if the flush does not finish in time.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	first := !l.closed.Swap(true)
	running := l.running
	l.mu.Unlock()

	if first {
		close(l.stopChan)
	}
	if !running {
		return nil
	}

	select {
	case <-l.done:
		log.Info().
			Uint64("written", l.written.Load()).
			Uint64("dropped", l.dropped.Load()).
			Msg("event logger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Logger) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running && !l.closed.Load()
}

func (l *Logger) Dropped() uint64 { return l.dropped.Load() }
func (l *Logger) Written() uint64 { return l.written.Load() }
func (l *Logger) Failed() uint64  { return l.failed.Load() }

func (l *Logger) run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case e := <-l.queue:
			l.flush(ctx, l.collect(e))
		case <-l.stopChan:
			l.drain()
			return
		case <-ctx.Done():
			l.drain()
			return
		}
	}
}

// collect batches first with whatever else is already queued.
func (l *Logger) collect(first entry) []models.Event {
	batch := []models.Event{l.encode(first)}
	for len(batch) < l.config.BatchSize {
		select {
		case e := <-l.queue:
			batch = append(batch, l.encode(e))
		default:
			return batch
		}
	}
	return batch
}

// drain writes out the queue after shutdown was requested.
func (l *Logger) drain() {
	ctx := context.Background()
	for {
		select {
		case e := <-l.queue:
			l.flush(ctx, l.collect(e))
		default:
			return
		}
	}
}

func (l *Logger) encode(e entry) models.Event {
	if len(e.details) == 0 {
		return e.event
	}
	data, err := json.Marshal(e.details)
	if err != nil {
		log.Error().Err(err).Str("event", e.event.Name).Msg("failed to marshal event details")
		data, _ = json.Marshal(map[string]string{"marshal_error": err.Error()})
	}
	e.event.Details = data
	return e.event
}

// flush hands batch to every sink. A failing sink does not stop the others.
func (l *Logger) flush(ctx context.Context, batch []models.Event) {
	ok := true
	for _, sink := range l.sinks {
		if err := l.writeWithRetry(ctx, sink, batch); err != nil {
			ok = false
			l.metrics.RecordSinkFailure(sink.Name())
			log.Error().
				Err(err).
				Str("sink", sink.Name()).
				Int("events", len(batch)).
				Msg("failed to write events")
		}
	}
	if ok {
		l.written.Add(uint64(len(batch)))
	} else {
		l.failed.Add(uint64(len(batch)))
	}
}

func (l *Logger) writeWithRetry(ctx context.Context, sink Sink, batch []models.Event) error {
	var lastErr error

	for attempt := 0; attempt <= l.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.clock.After(l.config.RetryDelay * time.Duration(attempt)):
			}
		}

		writeCtx, cancel := context.WithTimeout(ctx, l.config.WriteTimeout)
		err := sink.Write(writeCtx, batch)
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("sink", sink.Name()).
			Int("attempt", attempt+1).
			Msg("event write failed, retrying")
	}

	return fmt.Errorf("write to %s failed after %d attempts: %w", sink.Name(), l.config.MaxRetries+1, lastErr)
}
