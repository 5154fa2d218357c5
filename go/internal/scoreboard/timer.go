package scoreboard

import (
	"time"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

// WarningThreshold is the remaining time at which the two-minute warning fires.
const WarningThreshold = 120 * time.Second

// TimerState is the state of the countdown state machine.
type TimerState string

const (
	TimerRunning         TimerState = "RUNNING"
	TimerPaused          TimerState = "PAUSED"
	TimerPausedAtWarning TimerState = "PAUSED_AT_WARNING"
)

func timerStateOf(s models.GameState) TimerState {
	switch {
	case s.TwoMinWarning:
		return TimerPausedAtWarning
	case s.TimerPaused:
		return TimerPaused
	default:
		return TimerRunning
	}
}

// tick advances the countdown by dt and reports whether the two-minute
// warning fired on this tick.
//
// The remaining time is an integer duration, so the warning test is an exact
// edge crossing: it fires when the value goes from above the threshold to at
// or below it, whatever the tick size.
func tick(s *models.GameState, dt time.Duration) bool {
	if dt <= 0 || s.TimerPaused || s.GameTime <= 0 {
		return false
	}

	pre := s.GameTime
	post := pre - dt
	if post < 0 {
		post = 0
	}
	s.GameTime = post

	if s.WarningTriggered || !crossedWarning(pre, post) {
		return false
	}
	s.WarningTriggered = true
	s.TimerPaused = true
	s.TwoMinWarning = true
	return true
}

func crossedWarning(pre, post time.Duration) bool {
	return pre > WarningThreshold && post <= WarningThreshold
}
