package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler serves the viewer endpoints
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	service           *Service
}

func NewWebSocketHandler(cm *ConnectionManager, service *Service) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		service:           service,
	}
}

// HandleState streams JSON snapshots, starting with the current one.
func (h *WebSocketHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.upgrade(w, r, StreamState, h.service.initialState)
}

// HandleFrames streams mirrored panel frames as binary PNG messages.
func (h *WebSocketHandler) HandleFrames(w http.ResponseWriter, r *http.Request) {
	h.upgrade(w, r, StreamFrames, nil)
}

func (h *WebSocketHandler) upgrade(w http.ResponseWriter, r *http.Request, stream Stream, initial func() (*BroadcastMessage, error)) {
	// The upgrader has already replied to the client on failure.
	if err := h.connectionManager.UpgradeConnection(w, r, stream, initial); err != nil {
		log.Warn().Err(err).Str("stream", string(stream)).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}
