package api

import (
	"net/http"

	"github.com/mcdev12/scoreboard/go/internal/gateway"
)

type engineView struct {
	Frames        uint64 `json:"frames"`
	PresentErrors uint64 `json:"present_errors"`
}

type eventLogView struct {
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

type statusView struct {
	gateway.StateView
	Engine   *engineView              `json:"engine,omitempty"`
	EventLog *eventLogView            `json:"event_log,omitempty"`
	Viewers  *gateway.ConnectionStats `json:"viewers,omitempty"`
}

func (s *server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := statusView{StateView: gateway.NewStateView(s.Board.Snapshot())}
		if s.Engine != nil {
			view.Engine = &engineView{Frames: s.Engine.Frames(), PresentErrors: s.Engine.PresentErrors()}
		}
		if s.LoggerStats != nil {
			view.EventLog = &eventLogView{
				Written: s.LoggerStats.Written(),
				Dropped: s.LoggerStats.Dropped(),
				Failed:  s.LoggerStats.Failed(),
			}
		}
		if s.Gateway != nil {
			stats := s.Gateway.ConnectionManager().Stats()
			view.Viewers = &stats
		}
		writeJSON(w, http.StatusOK, view)
	}
}
