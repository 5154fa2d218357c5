package gateway

import (
	"bytes"
	"image"
	"image/png"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/scoreboard/go/internal/panel"
	"github.com/rs/zerolog/log"
)

// DefaultMirrorEvery mirrors two frames per second at the default frame rate.
const DefaultMirrorEvery = 5

// Publisher fans payloads out to viewers.
type Publisher interface {
	Subscribers(stream Stream) int
	Broadcast(stream Stream, kind int, data []byte)
}

// MirrorPanel is a panel.Driver that forwards to another driver and
// publishes every Nth presented frame as a PNG on the frames stream.
type MirrorPanel struct {
	panel.Driver

	publisher Publisher
	every     uint64
	encoder   png.Encoder
	buf       bytes.Buffer

	presented atomic.Uint64
	mirrored  atomic.Uint64
}

func NewMirrorPanel(driver panel.Driver, publisher Publisher, every int) *MirrorPanel {
	if every <= 0 {
		every = DefaultMirrorEvery
	}
	return &MirrorPanel{
		Driver:    driver,
		publisher: publisher,
		every:     uint64(every),
		encoder:   png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// Present is only called from the render loop goroutine.
func (m *MirrorPanel) Present(frame *image.RGBA) error {
	if err := m.Driver.Present(frame); err != nil {
		return err
	}

	n := m.presented.Add(1)
	if n%m.every != 0 || m.publisher.Subscribers(StreamFrames) == 0 {
		return nil
	}

	m.buf.Reset()
	if err := m.encoder.Encode(&m.buf, frame); err != nil {
		log.Error().Err(err).Msg("failed to encode mirror frame")
		return nil
	}
	m.publisher.Broadcast(StreamFrames, websocket.BinaryMessage, bytes.Clone(m.buf.Bytes()))
	m.mirrored.Add(1)
	return nil
}

// Mirrored returns how many frames were published.
func (m *MirrorPanel) Mirrored() uint64 {
	return m.mirrored.Load()
}
