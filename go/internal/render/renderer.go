package render

import (
	"fmt"
	"image"
	"image/color"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/models"
)

const (
	DefaultWidth          = 256
	DefaultHeight         = 32
	DefaultContactTimeout = 30 * time.Second

	// ScoreCellWidth is the width of each team's score area at the panel edges.
	ScoreCellWidth = 32

	// blinkFrames is the length of each half of a blink cycle.
	blinkFrames = 5

	onesOffset = 11
)

var (
	WarningColor   = color.RGBA{R: 0xff, A: 0xff}
	ConnectedColor = color.RGBA{G: 0xff, A: 0xff}
	IdleColor      = color.RGBA{R: 0xff, G: 0xbf, A: 0xff}
)

// Options configures a Renderer. Zero fields take defaults.
type Options struct {
	Width          int
	Height         int
	ContactTimeout time.Duration
	Clock          clockwork.Clock
}

// Renderer turns snapshots into frames. It keeps the scroll cursor and the
// frame counter, so it must be driven from a single goroutine.
//
// The returned frame is reused by the next Render call.
type Renderer struct {
	canvas         *image.RGBA
	clock          clockwork.Clock
	contactTimeout time.Duration

	frame       uint64
	cursor      int
	textVersion uint64
}

func NewRenderer(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.ContactTimeout <= 0 {
		opts.ContactTimeout = DefaultContactTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Renderer{
		canvas:         image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		clock:          opts.Clock,
		contactTimeout: opts.ContactTimeout,
	}
}

// Bounds returns the frame geometry.
func (r *Renderer) Bounds() image.Rectangle {
	return r.canvas.Bounds()
}

// Cursor returns the rune index the next scroll frame starts at.
func (r *Renderer) Cursor() int {
	return r.cursor
}

// Frames returns the number of frames rendered so far.
func (r *Renderer) Frames() uint64 {
	return r.frame
}

// Render composes one frame from s.
func (r *Renderer) Render(s models.GameState) *image.RGBA {
	blank(r.canvas)

	if s.DisplayEnabled {
		switch s.DisplayMode {
		case models.DisplayModeText:
			r.drawScores(s)
			r.drawText(s)
		default:
			r.drawScores(s)
			r.drawTimer(s)
		}
	}
	r.drawStatus(s)

	r.frame++
	return r.canvas
}

func (r *Renderer) middle() image.Rectangle {
	b := r.canvas.Bounds()
	return image.Rect(b.Min.X+ScoreCellWidth, b.Min.Y, b.Max.X-ScoreCellWidth, b.Max.Y)
}

func (r *Renderer) drawScores(s models.GameState) {
	b := r.canvas.Bounds()
	r.drawScore(s.Scores.Home, b.Min.X, s.Colors.Home.RGBA())
	r.drawScore(s.Scores.Away, b.Max.X-ScoreCellWidth, s.Colors.Away.RGBA())
}

// drawScore draws a 0..19 score in the cell starting at x: the ones digit
// large and, for 10 and up, the small one in the cell's top-left corner.
func (r *Renderer) drawScore(score, x int, c color.RGBA) {
	if score < models.MinScore {
		score = models.MinScore
	}
	if score > models.MaxScore {
		score = models.MaxScore
	}
	drawGlyph(r.canvas, largeDigits[score%10], x+onesOffset, r.canvas.Bounds().Min.Y, c)
	if score >= 10 {
		drawGlyph(r.canvas, smallOne, x, r.canvas.Bounds().Min.Y, c)
	}
}

func (r *Renderer) drawTimer(s models.GameState) {
	c := s.Colors.Timer.RGBA()
	if s.TwoMinWarning {
		if !r.blinkOn() {
			return
		}
		c = WarningColor
	}
	r.drawCentered(FormatGameTime(s.GameTime), c)
}

func (r *Renderer) drawText(s models.GameState) {
	if s.ShowTime {
		r.drawCentered(r.clock.Now().Format("15:04"), s.Colors.Text.RGBA())
		return
	}

	if s.TextVersion != r.textVersion {
		r.textVersion = s.TextVersion
		r.cursor = 0
	}
	n := utf8.RuneCountInString(s.ScrollText)
	if n == 0 {
		r.cursor = 0
		return
	}
	if r.cursor >= n {
		r.cursor = 0
	}

	runes := []rune(s.ScrollText)
	visible := string(runes[r.cursor:]) + string(runes[:r.cursor])
	mid := r.middle()
	size := textSize(visible, TextScale)
	y := mid.Min.Y + (mid.Dy()-size.Y)/2
	drawText(r.canvas, visible, mid.Min.X, y, TextScale, s.Colors.Text.RGBA(), mid)

	r.cursor = (r.cursor + 1) % n
}

func (r *Renderer) drawCentered(text string, c color.RGBA) {
	mid := r.middle()
	size := textSize(text, TextScale)
	x := mid.Min.X + (mid.Dx()-size.X)/2
	y := mid.Min.Y + (mid.Dy()-size.Y)/2
	drawText(r.canvas, text, x, y, TextScale, c, mid)
}

// drawStatus draws the heartbeat in the bottom-right corner. It is drawn even
// when the display is off.
func (r *Renderer) drawStatus(s models.GameState) {
	if !r.blinkOn() {
		return
	}
	c := IdleColor
	if !s.LastClientContact.IsZero() && r.clock.Since(s.LastClientContact) <= r.contactTimeout {
		c = ConnectedColor
	}
	b := r.canvas.Bounds()
	drawGlyph(r.canvas, statusGlyph, b.Max.X-StatusSize, b.Max.Y-StatusSize, c)
}

func (r *Renderer) blinkOn() bool {
	return (r.frame/blinkFrames)%2 == 0
}

// FormatGameTime renders d as MM:SS, truncating fractional seconds.
func FormatGameTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
