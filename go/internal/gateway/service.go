package gateway

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StateProvider returns the current scoreboard state.
type StateProvider interface {
	Snapshot() models.GameState
}

// Service is the live viewer gateway: state snapshots and mirrored frames
// over WebSocket.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateProvider     StateProvider
	clock             clockwork.Clock
}

// NewService creates the gateway. clock may be nil.
func NewService(config ConnectionConfig, stateProvider StateProvider, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cm := NewConnectionManager(config, clock)
	s := &Service{
		connectionManager: cm,
		stateProvider:     stateProvider,
		clock:             clock,
	}
	s.wsHandler = NewWebSocketHandler(cm, s)
	return s
}

// Start runs the broadcast loop until ctx is done.
func (s *Service) Start(ctx context.Context) {
	s.connectionManager.Start(ctx)
}

// PublishState sends state to every state viewer.
func (s *Service) PublishState(state models.GameState) {
	if s.connectionManager.Subscribers(StreamState) == 0 {
		return
	}
	msg, err := NewStateMessage(state, s.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to encode state message")
		return
	}
	s.connectionManager.Broadcast(StreamState, websocket.TextMessage, msg)
}

// PublishCurrentState publishes the provider's current snapshot.
func (s *Service) PublishCurrentState() {
	s.PublishState(s.stateProvider.Snapshot())
}

func (s *Service) initialState() (*BroadcastMessage, error) {
	msg, err := NewStateMessage(s.stateProvider.Snapshot(), s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &BroadcastMessage{Stream: StreamState, Kind: websocket.TextMessage, Data: msg}, nil
}

func (s *Service) ConnectionManager() *ConnectionManager { return s.connectionManager }

func (s *Service) Handler() *WebSocketHandler { return s.wsHandler }
