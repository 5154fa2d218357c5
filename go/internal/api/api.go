package api

import (
	"context"
	"image"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/eventlog"
	"github.com/mcdev12/scoreboard/go/internal/gateway"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/presets"
	"github.com/mcdev12/scoreboard/go/internal/scoreboard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// CommandSurface is the scoreboard as seen by the control API.
type CommandSurface interface {
	Snapshot() models.GameState
	RecordClientContact()

	SetScore(team models.Team, value int, user string) error
	SetGameTime(minutes float64)
	ResumeTimer()
	PauseTimer()
	SetDisplayMode(mode models.DisplayMode) error
	SetBrightness(level int)
	SetColor(element models.Element, rgb models.RGB) error
	SetColors(colors map[models.Element]models.RGB) error
	SetDisplayPower(enabled bool)
	SetScrollText(text string)
	SetShowTime(enabled bool)
}

var _ CommandSurface = (*scoreboard.Board)(nil)

// StateNotifier is told when a command changed the state.
type StateNotifier interface {
	PublishCurrentState()
}

// EngineStats exposes render loop counters.
type EngineStats interface {
	Frames() uint64
	PresentErrors() uint64
}

// LoggerStats exposes event log counters.
type LoggerStats interface {
	Written() uint64
	Dropped() uint64
	Failed() uint64
}

// FrameSource returns a copy of the frame on the panel.
type FrameSource interface {
	Front() *image.RGBA
}

// HealthCheck is one named probe of /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options wires the router. Board and Logger are required.
type Options struct {
	Board   CommandSurface
	Logger  scoreboard.EventLogger
	Events  eventlog.Querier
	Presets *presets.Store

	Notifier    StateNotifier
	Gateway     *gateway.Service
	Engine      EngineStats
	LoggerStats LoggerStats
	Frames      FrameSource

	Gatherer       prometheus.Gatherer
	HealthChecks   []HealthCheck
	AllowedOrigins []string
	Clock          clockwork.Clock
}

type server struct {
	Options
}

// NewHandler builds the HTTP surface: the JSON control API, health, metrics
// and the viewer WebSockets, wrapped in CORS.
func NewHandler(opts Options) http.Handler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &server{Options: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth())
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.clientContact)

		r.Post("/score", s.handleScore())
		r.Post("/timer", s.handleTimer())
		r.Post("/timer/resume", s.handleResume())
		r.Post("/timer/pause", s.handlePause())
		r.Post("/display/mode", s.handleDisplayMode())
		r.Post("/display/power", s.handleDisplayPower())
		r.Post("/display/brightness", s.handleBrightness())
		r.Post("/display/text", s.handleText())
		r.Post("/display/clock", s.handleShowTime())
		r.Get("/display/frame.png", s.handleFrame())
		r.Post("/colors", s.handleColors())

		r.Get("/status", s.handleStatus())
		r.Get("/logs", s.handleLogs())

		r.Get("/messages/presets", s.handleListPresets())
		r.Post("/messages/presets", s.handleAddPreset())
		r.Delete("/messages/presets", s.handleRemovePreset())
	})

	if opts.Gateway != nil {
		ws := opts.Gateway.Handler()
		r.Get("/ws/state", ws.HandleState)
		r.Get("/ws/frames", ws.HandleFrames)
		r.Get("/ws/stats", ws.HandleConnectionStats)
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedOrigins: opts.AllowedOrigins,
		AllowedHeaders: []string{"Content-Type", "X-User-Id"},
	})
	return c.Handler(r)
}
