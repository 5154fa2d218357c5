package panel

import (
	"errors"
	"image"
	"image/draw"
	"sync"
)

// ErrGeometry is returned when a frame does not match the panel size.
var ErrGeometry = errors.New("frame size does not match panel")

// Driver is the output side of the render loop.
type Driver interface {
	// Present shows frame. The driver must copy it; the caller reuses the
	// buffer for the next frame.
	Present(frame *image.RGBA) error
	SetBrightness(percent int) error
	Clear() error
}

// DoubleBuffer holds an on-screen and an off-screen frame. Present writes the
// off-screen buffer and swaps, so readers never observe a half-written frame.
type DoubleBuffer struct {
	presentMu sync.Mutex
	back      *image.RGBA

	mu    sync.RWMutex
	front *image.RGBA
	swaps uint64
}

func NewDoubleBuffer(bounds image.Rectangle) *DoubleBuffer {
	return &DoubleBuffer{
		back:  image.NewRGBA(bounds),
		front: image.NewRGBA(bounds),
	}
}

func (d *DoubleBuffer) Bounds() image.Rectangle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.front.Bounds()
}

// Present copies frame into the off-screen buffer and swaps it to the front.
func (d *DoubleBuffer) Present(frame *image.RGBA) error {
	d.presentMu.Lock()
	defer d.presentMu.Unlock()

	if frame.Bounds().Size() != d.back.Bounds().Size() {
		return ErrGeometry
	}
	draw.Draw(d.back, d.back.Bounds(), frame, frame.Bounds().Min, draw.Src)

	d.mu.Lock()
	d.front, d.back = d.back, d.front
	d.swaps++
	d.mu.Unlock()
	return nil
}

// Clear blanks both buffers.
func (d *DoubleBuffer) Clear() {
	d.presentMu.Lock()
	defer d.presentMu.Unlock()

	clear(d.back.Pix)
	d.mu.Lock()
	clear(d.front.Pix)
	d.mu.Unlock()
}

// Front returns a copy of the frame currently on screen.
func (d *DoubleBuffer) Front() *image.RGBA {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := image.NewRGBA(d.front.Bounds())
	copy(out.Pix, d.front.Pix)
	return out
}

// Swaps returns the number of frames presented.
func (d *DoubleBuffer) Swaps() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.swaps
}
