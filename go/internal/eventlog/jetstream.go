package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	Replicas        int
	DuplicateWindow time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "SCOREBOARD_EVENTS",
		SubjectPrefix:   "scoreboard.events",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          30 * 24 * time.Hour,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
	}
}

// JetStreamSink publishes every event to <prefix>.<kind>.<event>.
type JetStreamSink struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

var _ Sink = (*JetStreamSink)(nil)

func NewJetStreamSink(ctx context.Context, cfg JetStreamConfig) (*JetStreamSink, error) {
	opts := []nats.Option{
		nats.Name("scoreboard-eventlog"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	s := &JetStreamSink{nc: nc, js: js, config: cfg}
	if err := s.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return s, nil
}

func (s *JetStreamSink) Name() string { return "jetstream" }

func (s *JetStreamSink) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        s.config.StreamName,
		Description: "Scoreboard game and system events",
		Subjects:    []string{s.config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      s.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    s.config.Replicas,
		Duplicates:  s.config.DuplicateWindow,
	}

	if _, err := s.js.CreateOrUpdateStream(ctx, sc); err != nil {
		return fmt.Errorf("create or update stream: %w", err)
	}
	log.Info().Str("stream", s.config.StreamName).Msg("JetStream stream ready")
	return nil
}

// Subject returns the subject an event is published on.
func (s *JetStreamSink) Subject(e models.Event) string {
	return Subject(s.config.SubjectPrefix, e)
}

func Subject(prefix string, e models.Event) string {
	return fmt.Sprintf("%s.%s.%s", prefix, e.Kind, e.Name)
}

// Write publishes each event with its ID as the message ID, so a retried
// batch is de-duplicated by the server.
func (s *JetStreamSink) Write(ctx context.Context, events []models.Event) error {
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		_, err = s.js.PublishMsg(ctx, &nats.Msg{
			Subject: s.Subject(e),
			Data:    data,
			Header: nats.Header{
				"Event-Type": []string{e.Name},
				"Log-Type":   []string{string(e.Kind)},
				"Event-ID":   []string{e.ID.String()},
			},
		},
			jetstream.WithMsgID(e.ID.String()),
			jetstream.WithExpectStream(s.config.StreamName),
		)
		if err != nil {
			return fmt.Errorf("publish %s: %w", e.ID, err)
		}
	}
	return nil
}

// Connected reports whether the NATS connection is up.
func (s *JetStreamSink) Connected() bool {
	return s.nc != nil && s.nc.IsConnected()
}

func (s *JetStreamSink) Close() error {
	if s.nc != nil {
		s.nc.Close()
	}
	return nil
}
