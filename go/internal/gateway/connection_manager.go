package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages viewer WebSocket connections per stream
type ConnectionManager struct {
	connections map[Stream]map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock

	broadcastCh chan BroadcastMessage
	dropped     atomic.Uint64
}

// Connection represents a WebSocket connection to a viewer
type Connection struct {
	ID      string
	Stream  Stream
	Conn    *websocket.Conn
	Send    chan outbound
	Manager *ConnectionManager

	ConnectedAt time.Time
}

type outbound struct {
	kind int
	data []byte
}

// ConnectionConfig holds configuration for viewer connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool

	// OnClientMessage is called for every message a viewer sends.
	OnClientMessage func(stream Stream, message []byte)
}

// BroadcastMessage is one payload queued for a stream
type BroadcastMessage struct {
	Stream Stream
	Kind   int // websocket.TextMessage or websocket.BinaryMessage
	Data   []byte
}

// ConnectionStats summarizes the open connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	Streams          map[Stream]int `json:"streams"`
	Dropped          uint64         `json:"dropped_broadcasts"`
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBufferSize:  64,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a connection manager. clock may be nil.
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock) *ConnectionManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 64
	}
	return &ConnectionManager{
		connections: make(map[Stream]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		clock:       clock,
		broadcastCh: make(chan BroadcastMessage, 256),
	}
}

// Start processes broadcast messages until ctx is done, then closes every
// connection.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	defer cm.closeAll()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request and subscribes it to stream.
// initial, if not nil, is called during registration and its message is
// queued ahead of any broadcast.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, stream Stream, initial func() (*BroadcastMessage, error)) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Stream:      stream,
		Conn:        conn,
		Send:        make(chan outbound, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: cm.clock.Now(),
	}

	cm.registerConnection(connection, initial)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("stream", string(stream)).
		Str("remote_addr", r.RemoteAddr).
		Msg("viewer connected")
	return nil
}

// registerConnection builds the initial message under the write lock, so a
// broadcast either predates it or reaches the new connection.
func (cm *ConnectionManager) registerConnection(conn *Connection, initial func() (*BroadcastMessage, error)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if initial != nil {
		msg, err := initial()
		if err != nil {
			log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to build initial message")
		} else if msg != nil {
			conn.Send <- outbound{kind: msg.Kind, data: msg.Data}
		}
	}

	if cm.connections[conn.Stream] == nil {
		cm.connections[conn.Stream] = make(map[*Connection]bool)
	}
	cm.connections[conn.Stream][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("stream", string(conn.Stream)).
		Int("stream_connections", len(cm.connections[conn.Stream])).
		Msg("connection registered")
}

// unregisterConnection closes the send channel exactly once.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, ok := cm.connections[conn.Stream]
	if !ok || !connections[conn] {
		return
	}
	delete(connections, conn)
	close(conn.Send)
	if len(connections) == 0 {
		delete(cm.connections, conn.Stream)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("stream", string(conn.Stream)).
		Msg("viewer disconnected")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, connections := range cm.connections {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		cm.unregisterConnection(conn)
	}
}

// Subscribers returns the number of connections on stream.
func (cm *ConnectionManager) Subscribers(stream Stream) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections[stream])
}

// Broadcast queues data for every connection on stream. It never blocks;
// when the queue is full the message is dropped.
func (cm *ConnectionManager) Broadcast(stream Stream, kind int, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{Stream: stream, Kind: kind, Data: data}:
	default:
		if n := cm.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Warn().Str("stream", string(stream)).Uint64("dropped", n).Msg("broadcast channel full, dropping message")
		}
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections := cm.connections[message.Stream]
	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		if !cm.offer(conn, outbound{kind: message.Kind, data: message.Data}) {
			log.Warn().
				Str("connection_id", conn.ID).
				Str("stream", string(conn.Stream)).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
		}
	}
}

// offer sends without blocking. The read lock keeps unregisterConnection
// from closing the channel mid-send.
func (cm *ConnectionManager) offer(conn *Connection, msg outbound) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.connections[conn.Stream][conn] {
		return true
	}
	select {
	case conn.Send <- msg:
		return true
	default:
		return false
	}
}

func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{Streams: make(map[Stream]int), Dropped: cm.dropped.Load()}
	for stream, connections := range cm.connections {
		stats.Streams[stream] = len(connections)
		stats.TotalConnections += len(connections)
	}
	return stats
}

// writePump drains Send and pings the viewer.
func (c *Connection) writePump() {
	ticker := c.Manager.clock.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.Conn.WriteMessage(message.kind, message.data); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to write to viewer")
				return
			}

		case <-ticker.Chan():
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump keeps the read deadline alive and forwards viewer messages.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	readTimeout := c.Manager.config.ReadTimeout
	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			return
		}

		if cb := c.Manager.config.OnClientMessage; cb != nil {
			cb(c.Stream, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}
