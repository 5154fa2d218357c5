package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/panel"
	"github.com/mcdev12/scoreboard/go/internal/render"
	"github.com/mcdev12/scoreboard/go/internal/scoreboard"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the frame period, 10 frames per second.
const DefaultInterval = 100 * time.Millisecond

var ErrAlreadyStarted = errors.New("render loop already started")

// Config wires a Loop. Board, Renderer and Panel are required.
type Config struct {
	Board    *scoreboard.Board
	Renderer *render.Renderer
	Panel    panel.Driver
	Logger   scoreboard.EventLogger
	Clock    clockwork.Clock
	Metrics  MetricsCollector
	Interval time.Duration
}

// Loop advances the timer and pushes one frame to the panel per period.
type Loop struct {
	board    *scoreboard.Board
	renderer *render.Renderer
	panel    panel.Driver
	logger   scoreboard.EventLogger
	clock    clockwork.Clock
	metrics  MetricsCollector
	interval time.Duration

	startOnce sync.Once
	started   atomic.Bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	done      chan struct{}

	frames        atomic.Uint64
	presentErrors atomic.Uint64

	// Only touched by the loop goroutine.
	presentFailing bool
	lastWarning    bool
}

func NewLoop(cfg Config) *Loop {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoOpMetricsCollector{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	return &Loop{
		board:    cfg.Board,
		renderer: cfg.Renderer,
		panel:    cfg.Panel,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
		metrics:  cfg.Metrics,
		interval: cfg.Interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the loop goroutine. The loop ends when ctx is cancelled or
// Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	l.startOnce.Do(func() {
		err = nil
		l.started.Store(true)
		go l.run(ctx)
	})
	return err
}

// Stop ends the loop and waits for it to clear the panel. Safe to call more
// than once and before Start.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if l.started.Load() {
		<-l.done
	}
}

// Done is closed once the loop has exited and cleaned up.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

func (l *Loop) PresentErrors() uint64 {
	return l.presentErrors.Load()
}

func (l *Loop) Interval() time.Duration {
	return l.interval
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	defer l.shutdown()

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", l.interval).Msg("render loop started")

	for {
		l.step()

		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.Chan():
		}
	}
}

// step runs one frame: tick and snapshot under the state lock, then compose
// and present without it.
func (l *Loop) step() {
	snapshot := l.board.Advance(l.interval)
	if snapshot.TwoMinWarning && !l.lastWarning {
		l.metrics.RecordWarning()
	}
	l.lastWarning = snapshot.TwoMinWarning

	start := l.clock.Now()
	frame := l.renderer.Render(snapshot)
	err := l.present(frame)
	elapsed := l.clock.Since(start)

	if err != nil {
		l.presentErrors.Add(1)
		l.metrics.RecordPresentError()
		if !l.presentFailing {
			l.presentFailing = true
			log.Error().Err(err).Msg("panel present failed")
			l.logger.Log(models.LogKindError, "panel_present_failed", map[string]any{"error": err.Error()}, "")
		}
	} else if l.presentFailing {
		l.presentFailing = false
		log.Info().Msg("panel present recovered")
	}

	l.metrics.RecordFrame(elapsed)
	if elapsed > l.interval {
		l.metrics.RecordOverrun()
	}
	l.frames.Add(1)
}

func (l *Loop) present(frame *image.RGBA) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panel present panicked: %v", r)
		}
	}()
	return l.panel.Present(frame)
}

func (l *Loop) shutdown() {
	if err := l.clearPanel(); err != nil {
		log.Warn().Err(err).Msg("failed to clear panel on shutdown")
	}
	l.logger.Log(models.LogKindSystem, "scoreboard_shutdown", map[string]any{"frames": l.frames.Load()}, "")
	log.Info().Uint64("frames", l.frames.Load()).Msg("render loop stopped")
}

func (l *Loop) clearPanel() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panel clear panicked: %v", r)
		}
	}()
	return l.panel.Clear()
}

type nopLogger struct{}

func (nopLogger) Log(models.LogKind, string, map[string]any, string) {}
