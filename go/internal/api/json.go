package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, statusResponse{Status: "error", Message: msg})
}

// writeFailure reports an unexpected error and records it as <op>_failed.
func (s *server) writeFailure(w http.ResponseWriter, op string, err error) {
	log.Error().Err(err).Str("op", op).Msg("request failed")
	s.Logger.Log(models.LogKindError, op+"_failed", map[string]any{"error": err.Error()}, "")
	writeError(w, http.StatusInternalServerError, err.Error())
}
