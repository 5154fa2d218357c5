package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// clientContact keeps the status indicator green while a controller is
// talking to the API.
func (s *server) clientContact(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Board.RecordClientContact()
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every request with zerolog and, except for health and
// metrics scrapes, as a network event.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.Clock.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", s.Clock.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")

			if quietPath(r.URL.Path) {
				return
			}
			s.Logger.Log(models.LogKindNetwork, "http_request", map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": status,
			}, "")
		}()

		next.ServeHTTP(ww, r)
	})
}

func quietPath(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}

