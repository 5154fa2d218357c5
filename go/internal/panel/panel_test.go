package panel

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDoubleBufferPresentCopiesFrame(t *testing.T) {
	db := NewDoubleBuffer(image.Rect(0, 0, 4, 2))
	red := color.RGBA{R: 255, A: 255}

	frame := solid(4, 2, red)
	if err := db.Present(frame); err != nil {
		t.Fatalf("present: %v", err)
	}

	// Reusing the caller's buffer must not change what is on screen.
	frame.SetRGBA(0, 0, color.RGBA{B: 255, A: 255})
	if got := db.Front().RGBAAt(0, 0); got != red {
		t.Fatalf("expected red on screen, got %v", got)
	}
	if db.Swaps() != 1 {
		t.Fatalf("expected 1 swap, got %d", db.Swaps())
	}
}

func TestDoubleBufferRejectsWrongGeometry(t *testing.T) {
	db := NewDoubleBuffer(image.Rect(0, 0, 4, 2))
	if err := db.Present(image.NewRGBA(image.Rect(0, 0, 8, 2))); !errors.Is(err, ErrGeometry) {
		t.Fatalf("expected ErrGeometry, got %v", err)
	}
	if db.Swaps() != 0 {
		t.Fatal("rejected frame must not swap")
	}
}

func TestDoubleBufferReadersSeeWholeFrames(t *testing.T) {
	db := NewDoubleBuffer(image.Rect(0, 0, 16, 8))
	frames := []*image.RGBA{
		solid(16, 8, color.RGBA{R: 255, A: 255}),
		solid(16, 8, color.RGBA{G: 255, A: 255}),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = db.Present(frames[i%2])
		}
	}()

	for i := 0; i < 500; i++ {
		img := db.Front()
		first := img.RGBAAt(0, 0)
		if last := img.RGBAAt(15, 7); last != first {
			t.Fatalf("torn frame: %v vs %v", first, last)
		}
	}
	wg.Wait()
}

func TestMemoryPanel(t *testing.T) {
	p := NewMemoryPanel(4, 2)
	if p.Brightness() != 100 {
		t.Fatalf("expected default brightness 100, got %d", p.Brightness())
	}
	if err := p.SetBrightness(40); err != nil || p.Brightness() != 40 {
		t.Fatalf("expected brightness 40, got %d (%v)", p.Brightness(), err)
	}

	_ = p.Present(solid(4, 2, color.RGBA{R: 9, A: 255}))
	if p.Cleared() {
		t.Fatal("panel should not report cleared after present")
	}
	if err := p.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !p.Cleared() {
		t.Fatal("expected cleared panel")
	}
	for _, b := range p.Front().Pix {
		if b != 0 {
			t.Fatal("expected blank front buffer after clear")
		}
	}
}
