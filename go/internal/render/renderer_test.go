package render

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scoreboard/go/internal/models"
)

func countColor(img *image.RGBA, r image.Rectangle, c color.RGBA) int {
	n := 0
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func countLit(img *image.RGBA, r image.Rectangle) int {
	return r.Intersect(img.Bounds()).Dx()*r.Intersect(img.Bounds()).Dy() - countColor(img, r, black)
}

var testStart = time.Date(2024, 9, 14, 13, 5, 0, 0, time.UTC)

func newTestRenderer() *Renderer {
	return NewRenderer(Options{Clock: clockwork.NewFakeClockAt(testStart)})
}

func TestDigitTableIsComplete(t *testing.T) {
	seen := map[string]int{}
	for d, g := range largeDigits {
		if len(g) != DigitHeight {
			t.Fatalf("digit %d: expected %d rows, got %d", d, DigitHeight, len(g))
		}
		for y, row := range g {
			if len(row) != DigitWidth {
				t.Fatalf("digit %d row %d: expected width %d, got %d", d, y, DigitWidth, len(row))
			}
		}

		key := ""
		for _, row := range g {
			key += row
		}
		if prev, ok := seen[key]; ok {
			t.Fatalf("digits %d and %d share a bitmap", prev, d)
		}
		seen[key] = d
	}

	if len(smallOne) != SmallOneHeight || smallOne.width() != SmallOneWidth {
		t.Fatalf("small one must be %dx%d", SmallOneWidth, SmallOneHeight)
	}
}

func TestDrawGlyphPaintsLitCellsOnly(t *testing.T) {
	g := glyph{"X X", " X "}
	if !g.lit(0, 0) || g.lit(1, 0) || g.lit(3, 0) || g.lit(0, 2) || g.lit(-1, 0) {
		t.Fatal("unexpected lit cells")
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	white := color.RGBA{255, 255, 255, 255}
	// Partly off the right edge.
	drawGlyph(img, g, 2, 1, white)
	if n := countColor(img, img.Bounds(), white); n != 2 {
		t.Fatalf("expected 2 pixels drawn inside bounds, got %d", n)
	}
	if img.RGBAAt(2, 1) != white || img.RGBAAt(3, 2) != white {
		t.Fatal("lit cells not painted at their offsets")
	}
}

func TestFormatGameTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{180 * time.Second, "03:00"},
		{119*time.Second + 900*time.Millisecond, "01:59"},
		{0, "00:00"},
		{-time.Second, "00:00"},
		{125 * time.Minute, "125:00"},
	}
	for _, tt := range tests {
		if got := FormatGameTime(tt.in); got != tt.want {
			t.Errorf("FormatGameTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScrollCursorWraps(t *testing.T) {
	r := newTestRenderer()
	s := models.DefaultGameState()
	s.DisplayMode = models.DisplayModeText
	s.ScrollText = "AB"
	s.TextVersion = 1

	var got []int
	for i := 0; i < 4; i++ {
		got = append(got, r.Cursor())
		r.Render(s)
	}
	want := []int{0, 1, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected cursor sequence %v, got %v", want, got)
		}
	}
}

func TestScrollCursorEmptyAndReset(t *testing.T) {
	r := newTestRenderer()
	s := models.DefaultGameState()
	s.DisplayMode = models.DisplayModeText
	s.ScrollText = "HELLO"
	s.TextVersion = 1

	r.Render(s)
	r.Render(s)
	if r.Cursor() != 2 {
		t.Fatalf("expected cursor 2, got %d", r.Cursor())
	}

	s.ScrollText = "HI"
	s.TextVersion = 2
	r.Render(s)
	if r.Cursor() != 1 {
		t.Fatalf("new text should restart the cursor, got %d", r.Cursor())
	}

	s.ScrollText = ""
	s.TextVersion = 3
	frame := r.Render(s)
	if r.Cursor() != 0 {
		t.Fatalf("empty text must pin the cursor to 0, got %d", r.Cursor())
	}
	if n := countLit(frame, r.middle()); n != 0 {
		t.Fatalf("empty text should draw nothing, %d pixels lit", n)
	}
}

func TestDisplayDisabledDrawsOnlyStatus(t *testing.T) {
	r := newTestRenderer()
	s := models.DefaultGameState()
	s.DisplayEnabled = false
	s.Scores = models.Scores{Home: 18, Away: 7}
	s.GameTime = 3 * time.Minute

	frame := r.Render(s)
	b := frame.Bounds()
	status := image.Rect(b.Max.X-StatusSize, b.Max.Y-StatusSize, b.Max.X, b.Max.Y)

	if n := countLit(frame, b); n != StatusSize*StatusSize {
		t.Fatalf("expected only the status indicator lit, got %d pixels", n)
	}
	if n := countLit(frame, status); n != StatusSize*StatusSize {
		t.Fatalf("status indicator not in the bottom-right corner")
	}
}

func TestStatusIndicatorColorAndBlink(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	r := NewRenderer(Options{Clock: clock})
	s := models.DefaultGameState()
	b := r.Bounds()
	status := image.Rect(b.Max.X-StatusSize, b.Max.Y-StatusSize, b.Max.X, b.Max.Y)

	frame := r.Render(s)
	if countColor(frame, status, IdleColor) != StatusSize*StatusSize {
		t.Fatal("expected idle colour without client contact")
	}

	s.LastClientContact = clock.Now()
	for i := 1; i < blinkFrames; i++ {
		r.Render(s)
	}
	// Frames 5..9 are the dark half of the heartbeat.
	frame = r.Render(s)
	if countLit(frame, status) != 0 {
		t.Fatal("expected status indicator off during the dark phase")
	}
	for i := 0; i < blinkFrames-1; i++ {
		r.Render(s)
	}

	frame = r.Render(s)
	if countColor(frame, status, ConnectedColor) != StatusSize*StatusSize {
		t.Fatal("expected connected colour after recent contact")
	}

	clock.Advance(DefaultContactTimeout + time.Second)
	for i := 0; i < 2*blinkFrames-1; i++ {
		r.Render(s)
	}
	frame = r.Render(s)
	if countColor(frame, status, IdleColor) != StatusSize*StatusSize {
		t.Fatal("expected idle colour once contact is stale")
	}
}

func TestScoresUseSmallOneAboveNine(t *testing.T) {
	r := newTestRenderer()
	s := models.DefaultGameState()
	home := s.Colors.Home.RGBA()
	away := s.Colors.Away.RGBA()
	b := r.Bounds()
	homeTens := image.Rect(0, 0, SmallOneWidth, SmallOneHeight)
	awayTens := image.Rect(b.Max.X-ScoreCellWidth, 0, b.Max.X-ScoreCellWidth+SmallOneWidth, SmallOneHeight)

	s.Scores = models.Scores{Home: 12, Away: 2}
	frame := r.Render(s)
	if countColor(frame, homeTens, home) == 0 {
		t.Fatal("expected small one for a home score of 12")
	}
	if countLit(frame, awayTens) != 0 {
		t.Fatal("unexpected small one for an away score of 2")
	}

	ones := image.Rect(b.Max.X-ScoreCellWidth+onesOffset, 0, b.Max.X-ScoreCellWidth+onesOffset+DigitWidth, DigitHeight)
	if countColor(frame, ones, away) == 0 {
		t.Fatal("expected the away ones digit to be drawn")
	}
}

func TestTimerWarningBlinksRed(t *testing.T) {
	r := newTestRenderer()
	s := models.DefaultGameState()
	s.GameTime = 2 * time.Minute
	mid := r.middle()

	frame := r.Render(s)
	if countColor(frame, mid, s.Colors.Timer.RGBA()) == 0 {
		t.Fatal("expected timer drawn in the timer colour")
	}

	s.TwoMinWarning = true
	s.TimerPaused = true
	frame = r.Render(s)
	if countColor(frame, mid, WarningColor) == 0 {
		t.Fatal("expected timer drawn in the warning colour")
	}
	if countColor(frame, mid, s.Colors.Timer.RGBA()) != 0 {
		t.Fatal("timer colour should not be used during the warning")
	}

	for i := 2; i < blinkFrames; i++ {
		r.Render(s)
	}
	frame = r.Render(s)
	if countLit(frame, mid) != 0 {
		t.Fatal("expected the warning timer to blink off")
	}
}

func TestTextModeShowsClock(t *testing.T) {
	r := newTestRenderer()
	s := models.DefaultGameState()
	s.DisplayMode = models.DisplayModeText
	s.ShowTime = true
	s.ScrollText = "IGNORED"

	frame := r.Render(s)
	if countColor(frame, r.middle(), s.Colors.Text.RGBA()) == 0 {
		t.Fatal("expected the wall clock drawn in the text colour")
	}
	if r.Cursor() != 0 {
		t.Fatal("scroll cursor must not move while the clock is shown")
	}
}

func TestTextIsClippedToMiddle(t *testing.T) {
	r := newTestRenderer()
	s := models.DefaultGameState()
	s.DisplayMode = models.DisplayModeText
	s.ScrollText = "THIS MESSAGE IS FAR TOO LONG TO FIT ON THE PANEL"
	s.TextVersion = 1
	s.Colors.Text = models.RGB{R: 1, G: 2, B: 3}

	frame := r.Render(s)
	b := frame.Bounds()
	c := s.Colors.Text.RGBA()
	if countColor(frame, image.Rect(0, 0, ScoreCellWidth, b.Max.Y), c) != 0 ||
		countColor(frame, image.Rect(b.Max.X-ScoreCellWidth, 0, b.Max.X, b.Max.Y), c) != 0 {
		t.Fatal("scroll text leaked into a score cell")
	}
	if countColor(frame, r.middle(), c) == 0 {
		t.Fatal("expected scroll text in the middle region")
	}
}
