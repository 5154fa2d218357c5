package scoreboard

import (
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// maxGameTime caps SetGameTime so the duration cannot overflow.
const maxGameTime = 100 * time.Hour

// SetScore sets the score of team, clamped to [0, 19].
func (b *Board) SetScore(team models.Team, value int, user string) error {
	if !team.Valid() {
		return rejectf("unknown team %q", team)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	newValue := clamp(value, models.MinScore, models.MaxScore)
	var oldValue int
	if team == models.TeamHome {
		oldValue = b.state.Scores.Home
		b.state.Scores.Home = newValue
	} else {
		oldValue = b.state.Scores.Away
		b.state.Scores.Away = newValue
	}

	b.logger.Log(models.LogKindGame, "score_update", map[string]any{
		"team":      string(team),
		"old_value": oldValue,
		"new_value": newValue,
	}, user)
	return nil
}

// SetGameTime starts a new countdown of minutes. Negative values clamp to 0.
// The warning may fire again for the new countdown.
func (b *Board) SetGameTime(minutes float64) {
	remaining := time.Duration(0)
	if seconds := minutes * 60; seconds > 0 && !math.IsNaN(seconds) {
		if seconds >= maxGameTime.Seconds() {
			remaining = maxGameTime
		} else {
			remaining = time.Duration(seconds * float64(time.Second))
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.GameTime = remaining
	b.state.WarningTriggered = false
	b.logger.Log(models.LogKindGame, "timer_set", map[string]any{"minutes": minutes}, "")
}

// ResumeTimer clears the pause and the warning banner. WarningTriggered stays
// set until the next SetGameTime.
func (b *Board) ResumeTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.TimerPaused = false
	b.state.TwoMinWarning = false
	b.logger.Log(models.LogKindGame, "timer_resumed", nil, "")
}

// PauseTimer stops the countdown without raising the warning banner.
func (b *Board) PauseTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.TimerPaused = true
	b.logger.Log(models.LogKindGame, "timer_paused", nil, "")
}

// SetDisplayMode switches between the timer and text layouts.
func (b *Board) SetDisplayMode(mode models.DisplayMode) error {
	if !mode.Valid() {
		return rejectf("unknown display mode %q", mode)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.DisplayMode = mode
	b.logger.Log(models.LogKindSystem, "display_mode_changed", map[string]any{"mode": string(mode)}, "")
	return nil
}

// SetBrightness stores level clamped to [10, 100] and forwards it to the
// panel. The logged level is the requested one.
func (b *Board) SetBrightness(level int) {
	b.mu.Lock()
	b.state.Brightness = clamp(level, models.MinBrightness, models.MaxBrightness)
	b.logger.Log(models.LogKindSystem, "brightness_changed", map[string]any{"level": level}, "")
	b.mu.Unlock()

	b.applyBrightness()
}

// SetColor overwrites the colour of one display element.
func (b *Board) SetColor(element models.Element, rgb models.RGB) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.state.Colors.Set(element, rgb) {
		return rejectf("unknown color element %q", element)
	}
	b.logger.Log(models.LogKindSystem, "color_changed", map[string]any{
		"element": string(element),
		"color":   rgb,
	}, "")
	return nil
}

// SetColors applies several elements in one critical section, so a frame
// never shows part of the batch. Nothing changes if any element is unknown.
func (b *Board) SetColors(colors map[models.Element]models.RGB) error {
	elements := make([]models.Element, 0, len(colors))
	for element := range colors {
		elements = append(elements, element)
	}
	sort.Slice(elements, func(i, j int) bool { return elements[i] < elements[j] })

	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.state.Colors
	for _, element := range elements {
		if !next.Set(element, colors[element]) {
			return rejectf("unknown color element %q", element)
		}
	}
	b.state.Colors = next
	for _, element := range elements {
		b.logger.Log(models.LogKindSystem, "color_changed", map[string]any{
			"element": string(element),
			"color":   colors[element],
		}, "")
	}
	return nil
}

// SetDisplayPower turns the panel content on or off. The status indicator
// stays visible either way.
func (b *Board) SetDisplayPower(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.DisplayEnabled = enabled
	state := "off"
	if enabled {
		state = "on"
	}
	b.logger.Log(models.LogKindSystem, "display_power", map[string]any{"state": state}, "")
}

// SetScrollText replaces the text shown in text mode and restarts scrolling.
func (b *Board) SetScrollText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.ScrollText = text
	b.state.TextVersion++
	b.logger.Log(models.LogKindSystem, "scroll_text_changed", map[string]any{
		"length": utf8.RuneCountInString(text),
	}, "")
}

// SetShowTime makes text mode show the wall clock instead of the scroll text.
func (b *Board) SetShowTime(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.ShowTime = enabled
	b.logger.Log(models.LogKindSystem, "show_time_changed", map[string]any{"enabled": enabled}, "")
}

// applyBrightness pushes the latest stored brightness to the dimmer.
// Reading the value under dimMu keeps concurrent callers from applying a
// stale level last.
func (b *Board) applyBrightness() {
	if b.dimmer == nil {
		return
	}

	b.dimMu.Lock()
	defer b.dimMu.Unlock()

	level := b.Snapshot().Brightness
	if err := b.dim(level); err != nil {
		log.Error().Err(err).Int("brightness", level).Msg("failed to apply panel brightness")
		b.logger.Log(models.LogKindError, "brightness_apply_failed", map[string]any{"error": err.Error()}, "")
	}
}

func (b *Board) dim(level int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panel brightness panicked: %v", r)
		}
	}()
	return b.dimmer.SetBrightness(level)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
