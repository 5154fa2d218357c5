package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/eventlog"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/panel"
	"github.com/mcdev12/scoreboard/go/internal/presets"
	"github.com/mcdev12/scoreboard/go/internal/scoreboard"
	"github.com/prometheus/client_golang/prometheus"
)

type loggedEvent struct {
	kind    models.LogKind
	name    string
	details map[string]any
	user    string
}

type recordingLogger struct {
	mu     sync.Mutex
	events []loggedEvent
}

func (l *recordingLogger) Log(kind models.LogKind, event string, details map[string]any, user string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, loggedEvent{kind: kind, name: event, details: details, user: user})
}

func (l *recordingLogger) find(name string) []loggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []loggedEvent
	for _, e := range l.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

type countingNotifier struct {
	mu sync.Mutex
	n  int
}

func (c *countingNotifier) PublishCurrentState() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type fixture struct {
	board    *scoreboard.Board
	logger   *recordingLogger
	events   *eventlog.MemoryStore
	notifier *countingNotifier
	clock    clockwork.Clock
	handler  http.Handler
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		logger:   &recordingLogger{},
		events:   eventlog.NewMemoryStore(100),
		notifier: &countingNotifier{},
		clock:    clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)),
	}
	f.board = scoreboard.NewBoard(f.logger, nil, f.clock)

	opts := Options{
		Board:    f.board,
		Logger:   f.logger,
		Events:   f.events,
		Presets:  presets.NewStore(nil),
		Notifier: f.notifier,
		Clock:    f.clock,
	}
	if mutate != nil {
		mutate(&opts)
	}
	f.handler = NewHandler(opts)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-Id", "scorekeeper")

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestCommandsUpdateBoard(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name  string
		path  string
		body  string
		check func(t *testing.T, s models.GameState)
	}{
		{"score", "/api/score", `{"team":"home","score":25}`, func(t *testing.T, s models.GameState) {
			if s.Scores.Home != models.MaxScore {
				t.Fatalf("expected clamped home score, got %d", s.Scores.Home)
			}
		}},
		{"score value alias", "/api/score", `{"team":"away","value":3}`, func(t *testing.T, s models.GameState) {
			if s.Scores.Away != 3 {
				t.Fatalf("expected away 3, got %d", s.Scores.Away)
			}
		}},
		{"timer", "/api/timer", `{"minutes":2.5}`, func(t *testing.T, s models.GameState) {
			if s.GameTime != 150*time.Second {
				t.Fatalf("expected 150s, got %v", s.GameTime)
			}
		}},
		{"pause", "/api/timer/pause", "", func(t *testing.T, s models.GameState) {
			if !s.TimerPaused {
				t.Fatal("expected paused")
			}
		}},
		{"resume", "/api/timer/resume", "", func(t *testing.T, s models.GameState) {
			if s.TimerPaused {
				t.Fatal("expected running")
			}
		}},
		{"mode", "/api/display/mode", `{"mode":"text"}`, func(t *testing.T, s models.GameState) {
			if s.DisplayMode != models.DisplayModeText {
				t.Fatalf("expected text mode, got %q", s.DisplayMode)
			}
		}},
		{"power off", "/api/display/power", `{"enabled":false}`, func(t *testing.T, s models.GameState) {
			if s.DisplayEnabled {
				t.Fatal("expected display off")
			}
		}},
		{"power default on", "/api/display/power", `{}`, func(t *testing.T, s models.GameState) {
			if !s.DisplayEnabled {
				t.Fatal("expected display on")
			}
		}},
		{"brightness", "/api/display/brightness", `{"level":5}`, func(t *testing.T, s models.GameState) {
			if s.Brightness != models.MinBrightness {
				t.Fatalf("expected clamped brightness, got %d", s.Brightness)
			}
		}},
		{"text", "/api/display/text", `{"text":"GO TEAM"}`, func(t *testing.T, s models.GameState) {
			if s.ScrollText != "GO TEAM" || s.TextVersion != 1 {
				t.Fatalf("unexpected text state %q v%d", s.ScrollText, s.TextVersion)
			}
		}},
		{"clock", "/api/display/clock", `{"enabled":true}`, func(t *testing.T, s models.GameState) {
			if !s.ShowTime {
				t.Fatal("expected show time")
			}
		}},
		{"colors", "/api/colors", `{"home":[255,0,0],"timer":[0,0,255]}`, func(t *testing.T, s models.GameState) {
			if s.Colors.Home != (models.RGB{R: 255}) || s.Colors.Timer != (models.RGB{B: 255}) {
				t.Fatalf("unexpected colors %+v", s.Colors)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.notifier.count()
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if resp := decode[statusResponse](t, rec); resp.Status != "success" {
				t.Fatalf("unexpected response %+v", resp)
			}
			if f.notifier.count() != before+1 {
				t.Fatal("expected state to be published")
			}
			tt.check(t, f.board.Snapshot())
		})
	}
}

func TestScoreRecordsUser(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/score", `{"team":"home","score":2}`)

	events := f.logger.find("score_update")
	if len(events) != 1 || events[0].user != "scorekeeper" {
		t.Fatalf("expected score_update by scorekeeper, got %+v", events)
	}
}

func TestCommandsRejectInvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	before := f.board.Snapshot()

	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown team", "/api/score", `{"team":"visitors","score":1}`},
		{"missing score", "/api/score", `{"team":"home"}`},
		{"unknown mode", "/api/display/mode", `{"mode":"video"}`},
		{"unknown element", "/api/colors", `{"home":[1,2,3],"border":[1,2,3]}`},
		{"bad rgb", "/api/colors", `{"home":[1,2]}`},
		{"malformed json", "/api/timer", `{"minutes":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if resp := decode[statusResponse](t, rec); resp.Status != "error" || resp.Message == "" {
				t.Fatalf("unexpected error body %+v", resp)
			}
		})
	}

	after := f.board.Snapshot()
	if after.Scores != before.Scores || after.DisplayMode != before.DisplayMode || after.Colors != before.Colors {
		t.Fatal("rejected commands must not change the state")
	}
	if f.notifier.count() != 0 {
		t.Fatal("rejected commands must not publish state")
	}
}

func TestRequestsRecordContactAndNetworkEvents(t *testing.T) {
	f := newFixture(t, nil)
	f.clock.(interface{ Advance(time.Duration) }).Advance(time.Minute)

	f.do(t, http.MethodGet, "/api/status", "")
	if got := f.board.Snapshot().LastClientContact; !got.Equal(f.clock.Now()) {
		t.Fatalf("expected contact at %v, got %v", f.clock.Now(), got)
	}

	f.do(t, http.MethodGet, "/health", "")
	requests := f.logger.find("http_request")
	if len(requests) != 1 {
		t.Fatalf("expected only the api request logged, got %d", len(requests))
	}
	if requests[0].kind != models.LogKindNetwork || requests[0].details["path"] != "/api/status" || requests[0].details["status"] != http.StatusOK {
		t.Fatalf("unexpected request event %+v", requests[0])
	}
}

type fakeEngine struct{}

func (fakeEngine) Frames() uint64        { return 42 }
func (fakeEngine) PresentErrors() uint64 { return 1 }

func TestStatus(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Engine = fakeEngine{} })
	f.board.SetGameTime(1.5)
	if err := f.board.SetScore(models.TeamAway, 4, ""); err != nil {
		t.Fatal(err)
	}

	rec := f.do(t, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["game_time"] != "01:30" || body["game_time_seconds"] != 90.0 {
		t.Fatalf("unexpected time fields %v %v", body["game_time"], body["game_time_seconds"])
	}
	if scores := body["scores"].(map[string]any); scores["away"] != 4.0 {
		t.Fatalf("unexpected scores %v", scores)
	}
	if engine := body["engine"].(map[string]any); engine["frames"] != 42.0 {
		t.Fatalf("unexpected engine stats %v", engine)
	}
	if _, ok := body["viewers"]; ok {
		t.Fatal("viewers omitted without a gateway")
	}
}

func TestLogsQuery(t *testing.T) {
	f := newFixture(t, nil)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	err := f.events.Write(context.Background(), []models.Event{
		{Kind: models.LogKindGame, Name: "score_update", OccurredAt: day.Add(-time.Hour)},
		{Kind: models.LogKindSystem, Name: "brightness_changed", OccurredAt: day.Add(time.Hour)},
		{Kind: models.LogKindGame, Name: "timer_set", OccurredAt: day.Add(20 * time.Hour)},
		{Kind: models.LogKindError, Name: "panel_present_failed", OccurredAt: day.Add(30 * time.Hour)},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all newest first", "", []string{"panel_present_failed", "timer_set", "brightness_changed", "score_update"}},
		{"single day", "?start_date=2024-05-01&end_date=2024-05-01", []string{"timer_set", "brightness_changed"}},
		{"by type", "?type=game", []string{"timer_set", "score_update"}},
		{"comma types", "?type=game,error&limit=2", []string{"panel_present_failed", "timer_set"}},
		{"rfc3339 start", "?start_date=2024-05-01T12:00:00Z", []string{"panel_present_failed", "timer_set"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/logs"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			events := decode[[]models.Event](t, rec)
			var got []string
			for _, e := range events {
				got = append(got, e.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLogsRejectsBadQuery(t *testing.T) {
	f := newFixture(t, nil)
	for _, q := range []string{"?type=debug", "?limit=0", "?limit=abc", "?start_date=yesterday", "?start_date=2024-05-02&end_date=2024-05-01"} {
		if rec := f.do(t, http.MethodGet, "/api/logs"+q, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

type failingQuerier struct{}

func (failingQuerier) Query(context.Context, eventlog.Filter) ([]models.Event, error) {
	return nil, errors.New("connection refused")
}

func TestLogsQueryFailureIsLogged(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Events = failingQuerier{} })

	rec := f.do(t, http.MethodGet, "/api/logs", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := f.logger.find("logs_fetch_failed"); len(got) != 1 || got[0].kind != models.LogKindError {
		t.Fatalf("expected logs_fetch_failed error event, got %+v", got)
	}
}

func TestPresets(t *testing.T) {
	f := newFixture(t, nil)

	list := decode[map[string][]string](t, f.do(t, http.MethodGet, "/api/messages/presets", ""))
	if len(list["default"]) != len(presets.DefaultMessages()) {
		t.Fatalf("unexpected presets %v", list)
	}

	rec := f.do(t, http.MethodPost, "/api/messages/presets", `{"message":"SHOT CLOCK"}`)
	added := decode[presetResponse](t, rec)
	if rec.Code != http.StatusOK || !added.Changed || added.Messages[len(added.Messages)-1] != "SHOT CLOCK" {
		t.Fatalf("unexpected add response %d %+v", rec.Code, added)
	}

	if rec := f.do(t, http.MethodPost, "/api/messages/presets", `{"message":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty preset, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/api/messages/presets?message=SHOT%20CLOCK", "")
	removed := decode[presetResponse](t, rec)
	if !removed.Changed || len(removed.Messages) != len(presets.DefaultMessages()) {
		t.Fatalf("unexpected remove response %+v", removed)
	}
}

func TestHealth(t *testing.T) {
	healthy := true
	f := newFixture(t, func(o *Options) {
		o.HealthChecks = []HealthCheck{
			{Name: "event_log", Check: func(context.Context) error { return nil }},
			{Name: "postgres", Check: func(context.Context) error {
				if healthy {
					return nil
				}
				return errors.New("down")
			}},
		}
	})

	rec := f.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	healthy = false
	rec = f.do(t, http.MethodGet, "/health", "")
	resp := decode[healthResponse](t, rec)
	if rec.Code != http.StatusServiceUnavailable || resp.Checks["postgres"] != "error" || resp.Checks["event_log"] != "ok" {
		t.Fatalf("unexpected degraded health %d %+v", rec.Code, resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "scoreboard_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	f := newFixture(t, func(o *Options) { o.Gatherer = reg })
	rec := f.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "scoreboard_test_total 1") {
		t.Fatalf("unexpected metrics %d %s", rec.Code, rec.Body.String())
	}
	if len(f.logger.find("http_request")) != 0 {
		t.Fatal("metrics scrapes are not logged as events")
	}
}

func TestFramePNG(t *testing.T) {
	p := panel.NewMemoryPanel(96, 32)
	frame := image.NewRGBA(image.Rect(0, 0, 96, 32))
	frame.Pix[0], frame.Pix[3] = 255, 255
	if err := p.Present(frame); err != nil {
		t.Fatal(err)
	}

	f := newFixture(t, func(o *Options) { o.Frames = p })
	rec := f.do(t, http.MethodGet, "/api/display/frame.png", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 255 {
		t.Fatalf("expected red top-left pixel, got %v", img.At(0, 0))
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AllowedOrigins = []string{"http://controller.local"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/score", nil)
	req.Header.Set("Origin", "http://controller.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://controller.local" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
}
