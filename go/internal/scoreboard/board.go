package scoreboard

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/models"
)

// EventLogger records scoreboard events. Implementations must not block the
// caller and must swallow their own failures.
type EventLogger interface {
	Log(kind models.LogKind, event string, details map[string]any, user string)
}

// Dimmer is the brightness control of the panel driver.
type Dimmer interface {
	SetBrightness(percent int) error
}

// Board owns the live game state. Every exported method is one critical
// section; callers only ever see copies.
type Board struct {
	mu    sync.Mutex
	state models.GameState

	logger EventLogger
	clock  clockwork.Clock

	// dimMu serializes driver brightness calls outside mu.
	dimMu  sync.Mutex
	dimmer Dimmer
}

// NewBoard creates a board with the default state.
// logger and dimmer may be nil; clock defaults to the real clock.
func NewBoard(logger EventLogger, dimmer Dimmer, clock clockwork.Clock) *Board {
	if logger == nil {
		logger = nopLogger{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Board{
		state:  models.DefaultGameState(),
		logger: logger,
		clock:  clock,
		dimmer: dimmer,
	}
}

// Snapshot returns a copy of the current state.
func (b *Board) Snapshot() models.GameState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Advance runs one timer tick of dt and returns the post-tick snapshot.
// Both happen under a single acquisition of the state lock.
func (b *Board) Advance(dt time.Duration) models.GameState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tick(&b.state, dt) {
		b.logger.Log(models.LogKindGame, "two_minute_warning", nil, "")
	}
	return b.snapshotLocked()
}

// TimerState reports the current state of the countdown.
func (b *Board) TimerState() TimerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return timerStateOf(b.state)
}

// RecordClientContact marks that a control client talked to the engine.
func (b *Board) RecordClientContact() {
	now := b.clock.Now()
	b.mu.Lock()
	b.state.LastClientContact = now
	b.mu.Unlock()
}

func (b *Board) snapshotLocked() models.GameState {
	s := b.state
	s.GameTimeSeconds = s.GameTime.Seconds()
	return s
}

type nopLogger struct{}

func (nopLogger) Log(models.LogKind, string, map[string]any, string) {}
