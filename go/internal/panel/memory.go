package panel

import (
	"image"
	"sync"

	"github.com/rs/zerolog/log"
)

// MemoryPanel is a Driver that keeps the displayed frame in memory. It backs
// the simulator and the browser mirror when no matrix hardware is attached.
type MemoryPanel struct {
	*DoubleBuffer

	mu         sync.Mutex
	brightness int
	cleared    bool
}

var _ Driver = (*MemoryPanel)(nil)

func NewMemoryPanel(width, height int) *MemoryPanel {
	return &MemoryPanel{
		DoubleBuffer: NewDoubleBuffer(image.Rect(0, 0, width, height)),
		brightness:   100,
	}
}

func (p *MemoryPanel) Present(frame *image.RGBA) error {
	if err := p.DoubleBuffer.Present(frame); err != nil {
		return err
	}
	p.mu.Lock()
	p.cleared = false
	p.mu.Unlock()
	return nil
}

func (p *MemoryPanel) SetBrightness(percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.brightness = percent
	log.Debug().Int("brightness", percent).Msg("panel brightness set")
	return nil
}

func (p *MemoryPanel) Clear() error {
	p.DoubleBuffer.Clear()

	p.mu.Lock()
	p.cleared = true
	p.mu.Unlock()
	return nil
}

func (p *MemoryPanel) Brightness() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.brightness
}

// Cleared reports whether Clear ran after the last Present.
func (p *MemoryPanel) Cleared() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleared
}
