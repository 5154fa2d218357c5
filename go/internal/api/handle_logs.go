package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/scoreboard/go/internal/eventlog"
	"github.com/mcdev12/scoreboard/go/internal/models"
)

const dateLayout = "2006-01-02"

// handleLogs serves the event log, newest first.
// Query: start_date, end_date (YYYY-MM-DD or RFC 3339), type (repeatable or
// comma separated) and limit.
func (s *server) handleLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Events == nil {
			writeError(w, http.StatusNotFound, "event log query not available")
			return
		}

		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		events, err := s.Events.Query(r.Context(), filter)
		if err != nil {
			s.writeFailure(w, "logs_fetch", err)
			return
		}
		if events == nil {
			events = []models.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func parseFilter(q url.Values) (eventlog.Filter, error) {
	var f eventlog.Filter

	if v := q.Get("start_date"); v != "" {
		start, err := parseTime(v, false)
		if err != nil {
			return f, fmt.Errorf("invalid start_date: %w", err)
		}
		f.Start = &start
	}
	if v := q.Get("end_date"); v != "" {
		end, err := parseTime(v, true)
		if err != nil {
			return f, fmt.Errorf("invalid end_date: %w", err)
		}
		f.End = &end
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return f, errors.New("end_date is before start_date")
	}

	for _, raw := range q["type"] {
		for _, part := range strings.Split(raw, ",") {
			kind := models.LogKind(strings.TrimSpace(part))
			if kind == "" {
				continue
			}
			if !kind.Valid() {
				return f, fmt.Errorf("invalid type %q", kind)
			}
			f.Kinds = append(f.Kinds, kind)
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return f, fmt.Errorf("invalid limit %q", v)
		}
		f.Limit = limit
	}
	return f, nil
}

// parseTime accepts a date or an RFC 3339 timestamp. A bare end date covers
// the whole day.
func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
