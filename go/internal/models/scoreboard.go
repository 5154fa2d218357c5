package models

import (
	"time"
)

// Score and brightness bounds enforced by the command surface.
const (
	MinScore      = 0
	MaxScore      = 19
	MinBrightness = 10
	MaxBrightness = 100
)

// Team identifies one side of the scoreboard.
type Team string

const (
	TeamHome Team = "home"
	TeamAway Team = "away"
)

// Valid reports whether t is one of the two known teams.
func (t Team) Valid() bool {
	return t == TeamHome || t == TeamAway
}

// DisplayMode selects what the centre of the panel shows.
type DisplayMode string

const (
	DisplayModeTimer DisplayMode = "timer"
	DisplayModeText  DisplayMode = "text"
)

// Valid reports whether m is an accepted display mode.
func (m DisplayMode) Valid() bool {
	return m == DisplayModeTimer || m == DisplayModeText
}

// Scores holds both team scores.
type Scores struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Get returns the score for team.
func (s Scores) Get(team Team) int {
	if team == TeamAway {
		return s.Away
	}
	return s.Home
}

// GameState is a point-in-time copy of the scoreboard state.
// It is only ever handed out by value; the live state is owned by the engine.
type GameState struct {
	Scores            Scores        `json:"scores"`
	GameTime          time.Duration `json:"-"`
	GameTimeSeconds   float64       `json:"game_time_seconds"`
	DisplayMode       DisplayMode   `json:"display_mode"`
	ScrollText        string        `json:"scroll_text"`
	ShowTime          bool          `json:"show_time"`
	DisplayEnabled    bool          `json:"display_enabled"`
	Brightness        int           `json:"brightness"`
	Colors            Colors        `json:"colors"`
	TimerPaused       bool          `json:"timer_paused"`
	TwoMinWarning     bool          `json:"two_min_warning"`
	WarningTriggered  bool          `json:"warning_triggered"`
	TextVersion       uint64        `json:"text_version"`
	LastClientContact time.Time     `json:"last_client_contact"`
}

// DefaultGameState returns the state the engine boots with.
func DefaultGameState() GameState {
	return GameState{
		DisplayMode:    DisplayModeTimer,
		DisplayEnabled: true,
		Brightness:     MaxBrightness,
		Colors:         DefaultColors(),
	}
}

// LogKind classifies an event log entry.
type LogKind string

const (
	LogKindGame    LogKind = "game"
	LogKindSystem  LogKind = "system"
	LogKindError   LogKind = "error"
	LogKindPower   LogKind = "power"
	LogKindNetwork LogKind = "network"
)

// Valid reports whether k is a known log kind.
func (k LogKind) Valid() bool {
	switch k {
	case LogKindGame, LogKindSystem, LogKindError, LogKindPower, LogKindNetwork:
		return true
	}
	return false
}
