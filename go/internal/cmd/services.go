package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/api"
	"github.com/mcdev12/scoreboard/go/internal/config"
	"github.com/mcdev12/scoreboard/go/internal/engine"
	"github.com/mcdev12/scoreboard/go/internal/eventlog"
	"github.com/mcdev12/scoreboard/go/internal/gateway"
	"github.com/mcdev12/scoreboard/go/internal/panel"
	"github.com/mcdev12/scoreboard/go/internal/presets"
	"github.com/mcdev12/scoreboard/go/internal/render"
	"github.com/mcdev12/scoreboard/go/internal/scoreboard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/quasilyte/gdata/v2"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Board    *scoreboard.Board
	Panel    *panel.MemoryPanel
	Loop     *engine.Loop
	Logger   *eventlog.Logger
	Events   eventlog.Querier
	Presets  *presets.Store
	Gateway  *gateway.Service
	Registry *prometheus.Registry

	db        *sql.DB
	jetstream *eventlog.JetStreamSink
	checks    []api.HealthCheck
}

// setupServices wires storage, event log, board, renderer, loop and the
// viewer gateway.
func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	clock := clockwork.NewRealClock()
	s := &Services{Registry: prometheus.NewRegistry()}
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sinks, err := s.setupSinks(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	logCfg := eventlog.DefaultConfig()
	logCfg.BufferSize = cfg.EventBuffer
	s.Logger = eventlog.NewLogger(logCfg, clock, eventlog.NewPrometheusMetrics(s.Registry), sinks...)
	s.checks = append(s.checks, api.HealthCheck{Name: "event_log", Check: func(context.Context) error {
		if !s.Logger.Running() {
			return errors.New("event logger not running")
		}
		return nil
	}})

	s.Panel = panel.NewMemoryPanel(cfg.Display.Width(), cfg.Display.Height())
	s.Board = scoreboard.NewBoard(s.Logger, s.Panel, clock)

	connCfg := gateway.DefaultConnectionConfig()
	connCfg.OnClientMessage = func(gateway.Stream, []byte) { s.Board.RecordClientContact() }
	s.Gateway = gateway.NewService(connCfg, s.Board, clock)

	renderer := render.NewRenderer(render.Options{
		Width:          cfg.Display.Width(),
		Height:         cfg.Display.Height(),
		ContactTimeout: cfg.ContactTimeout,
		Clock:          clock,
	})
	s.Loop = engine.NewLoop(engine.Config{
		Board:    s.Board,
		Renderer: renderer,
		Panel:    gateway.NewMirrorPanel(s.Panel, s.Gateway.ConnectionManager(), cfg.MirrorEvery),
		Logger:   s.Logger,
		Clock:    clock,
		Metrics:  engine.NewPrometheusMetrics(s.Registry),
		Interval: cfg.FrameInterval,
	})

	s.Presets = presets.NewStore(openPresetData(cfg))
	return s, nil
}

func (s *Services) setupSinks(ctx context.Context, cfg *config.Config) ([]eventlog.Sink, error) {
	var sinks []eventlog.Sink

	switch cfg.EventStore {
	case config.EventStorePostgres:
		db, err := setupDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s.db = db

		store := eventlog.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to create event schema: %w", err)
		}
		s.Events = store
		sinks = append(sinks, store)
		s.checks = append(s.checks, api.HealthCheck{Name: "postgres", Check: db.PingContext})
	default:
		store := eventlog.NewMemoryStore(cfg.MemoryCapacity)
		s.Events = store
		sinks = append(sinks, store)
	}

	if cfg.NATSURL != "" {
		jsCfg := eventlog.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		sink, err := eventlog.NewJetStreamSink(ctx, jsCfg)
		if err != nil {
			return nil, err
		}
		s.jetstream = sink
		sinks = append(sinks, sink)
		s.checks = append(s.checks, api.HealthCheck{Name: "nats", Check: func(context.Context) error {
			if !sink.Connected() {
				return errors.New("not connected")
			}
			return nil
		}})
		log.Info().Str("url", cfg.NATSURL).Str("stream", jsCfg.StreamName).Msg("publishing events to JetStream")
	}
	return sinks, nil
}

// openPresetData returns nil, and so memory-only presets, when persistence
// is off or the data directory is unavailable.
func openPresetData(cfg *config.Config) *gdata.Manager {
	if !cfg.PresetsPersist {
		return nil
	}
	gm, err := gdata.Open(gdata.Config{AppName: cfg.PresetsAppName})
	if err != nil {
		log.Warn().Err(err).Msg("preset storage unavailable, presets will not persist")
		return nil
	}
	return gm
}

func (s *Services) apiOptions(cfg *config.Config) api.Options {
	return api.Options{
		Board:          s.Board,
		Logger:         s.Logger,
		Events:         s.Events,
		Presets:        s.Presets,
		Notifier:       s.Gateway,
		Gateway:        s.Gateway,
		Engine:         s.Loop,
		LoggerStats:    s.Logger,
		Frames:         s.Panel,
		Gatherer:       s.Registry,
		HealthChecks:   s.checks,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

// Close releases external connections. The event logger must be closed
// first so queued events reach them.
func (s *Services) Close() {
	if s.jetstream != nil {
		if err := s.jetstream.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close NATS connection")
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
}
