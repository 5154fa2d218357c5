package api

import (
	"errors"
	"fmt"
	"image/png"
	"net/http"

	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/scoreboard"
	"github.com/rs/zerolog/log"
)

// command decodes body into req, runs apply and answers the client. A
// rejected command maps to 400 and leaves the state alone.
func command[T any](s *server, op string, apply func(r *http.Request, req T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if r.ContentLength != 0 {
			if err := readJSON(w, r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		if err := apply(r, req); err != nil {
			if errors.Is(err, scoreboard.ErrValidationRejected) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.writeFailure(w, op, err)
			return
		}

		if s.Notifier != nil {
			s.Notifier.PublishCurrentState()
		}
		writeSuccess(w)
	}
}

type scoreRequest struct {
	Team  models.Team `json:"team"`
	Score *int        `json:"score"`
	Value *int        `json:"value"`
}

func (s *server) handleScore() http.HandlerFunc {
	return command(s, "score_update", func(r *http.Request, req scoreRequest) error {
		value := req.Score
		if value == nil {
			value = req.Value
		}
		if value == nil {
			return fmt.Errorf("%w: score is required", scoreboard.ErrValidationRejected)
		}
		return s.Board.SetScore(req.Team, *value, r.Header.Get("X-User-Id"))
	})
}

type timerRequest struct {
	Minutes float64 `json:"minutes"`
}

func (s *server) handleTimer() http.HandlerFunc {
	return command(s, "timer_update", func(_ *http.Request, req timerRequest) error {
		s.Board.SetGameTime(req.Minutes)
		return nil
	})
}

func (s *server) handleResume() http.HandlerFunc {
	return command(s, "timer_resume", func(*http.Request, struct{}) error {
		s.Board.ResumeTimer()
		return nil
	})
}

func (s *server) handlePause() http.HandlerFunc {
	return command(s, "timer_pause", func(*http.Request, struct{}) error {
		s.Board.PauseTimer()
		return nil
	})
}

type modeRequest struct {
	Mode models.DisplayMode `json:"mode"`
}

func (s *server) handleDisplayMode() http.HandlerFunc {
	return command(s, "display_mode_change", func(_ *http.Request, req modeRequest) error {
		return s.Board.SetDisplayMode(req.Mode)
	})
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// enabled defaults to true like the original controller.
func (t toggleRequest) value() bool {
	return t.Enabled == nil || *t.Enabled
}

func (s *server) handleDisplayPower() http.HandlerFunc {
	return command(s, "display_power_change", func(_ *http.Request, req toggleRequest) error {
		s.Board.SetDisplayPower(req.value())
		return nil
	})
}

func (s *server) handleShowTime() http.HandlerFunc {
	return command(s, "show_time_change", func(_ *http.Request, req toggleRequest) error {
		s.Board.SetShowTime(req.value())
		return nil
	})
}

type brightnessRequest struct {
	Level *int `json:"level"`
}

func (s *server) handleBrightness() http.HandlerFunc {
	return command(s, "brightness_change", func(_ *http.Request, req brightnessRequest) error {
		level := models.MaxBrightness
		if req.Level != nil {
			level = *req.Level
		}
		s.Board.SetBrightness(level)
		return nil
	})
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *server) handleText() http.HandlerFunc {
	return command(s, "text_update", func(_ *http.Request, req textRequest) error {
		s.Board.SetScrollText(req.Text)
		return nil
	})
}

// handleColors applies every element in the body as one batch. Unknown
// elements reject the whole request.
func (s *server) handleColors() http.HandlerFunc {
	return command(s, "color_update", func(_ *http.Request, req map[models.Element]models.RGB) error {
		return s.Board.SetColors(req)
	})
}

func (s *server) handleFrame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Frames == nil {
			writeError(w, http.StatusNotFound, "no frame source")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := png.Encode(w, s.Frames.Front()); err != nil {
			log.Debug().Err(err).Msg("failed to write frame")
		}
	}
}
