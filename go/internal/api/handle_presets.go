package api

import (
	"errors"
	"net/http"

	"github.com/mcdev12/scoreboard/go/internal/presets"
)

type presetRequest struct {
	Message string `json:"message"`
}

type presetResponse struct {
	Status   string   `json:"status"`
	Changed  bool     `json:"changed"`
	Messages []string `json:"messages"`
}

func (s *server) handleListPresets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Presets == nil {
			writeError(w, http.StatusNotFound, "presets not configured")
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"default": s.Presets.List()})
	}
}

func (s *server) handleAddPreset() http.HandlerFunc {
	return s.presetChange("preset_add", func(msg string) (bool, error) {
		return s.Presets.Add(msg)
	})
}

// handleRemovePreset takes the message from the body or the message query
// parameter.
func (s *server) handleRemovePreset() http.HandlerFunc {
	return s.presetChange("preset_remove", func(msg string) (bool, error) {
		return s.Presets.Remove(msg)
	})
}

func (s *server) presetChange(op string, apply func(string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Presets == nil {
			writeError(w, http.StatusNotFound, "presets not configured")
			return
		}

		req := presetRequest{Message: r.URL.Query().Get("message")}
		if r.ContentLength != 0 {
			if err := readJSON(w, r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		changed, err := apply(req.Message)
		switch {
		case errors.Is(err, presets.ErrEmptyMessage), errors.Is(err, presets.ErrMessageTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			s.writeFailure(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, presetResponse{Status: "success", Changed: changed, Messages: s.Presets.List()})
	}
}
