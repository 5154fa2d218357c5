package models

import (
	"encoding/json"
	"fmt"
	"image/color"
)

// RGB is a 24-bit colour. It encodes to JSON as a three element array.
type RGB struct {
	R, G, B uint8
}

// RGBA converts c to an opaque image colour.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]uint8{c.R, c.G, c.B})
}

func (c *RGB) UnmarshalJSON(data []byte) error {
	var parts []int
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("rgb must be an array of three integers: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("rgb must have 3 components, got %d", len(parts))
	}
	for i, p := range parts {
		if p < 0 || p > 255 {
			return fmt.Errorf("rgb component %d out of range: %d", i, p)
		}
	}
	*c = RGB{R: uint8(parts[0]), G: uint8(parts[1]), B: uint8(parts[2])}
	return nil
}

// Element names a coloured element of the display.
type Element string

const (
	ElementHome  Element = "home"
	ElementAway  Element = "away"
	ElementTimer Element = "timer"
	ElementText  Element = "text"
)

// Elements lists every colourable element.
var Elements = []Element{ElementHome, ElementAway, ElementTimer, ElementText}

// Colors holds one colour per element. All four are always present.
type Colors struct {
	Home  RGB `json:"home"`
	Away  RGB `json:"away"`
	Timer RGB `json:"timer"`
	Text  RGB `json:"text"`
}

// DefaultColors returns the boot palette: green scores, yellow timer, cyan text.
func DefaultColors() Colors {
	return Colors{
		Home:  RGB{0, 255, 0},
		Away:  RGB{0, 255, 0},
		Timer: RGB{255, 255, 0},
		Text:  RGB{0, 255, 255},
	}
}

// Get returns the colour for e, and false if e is unknown.
func (c Colors) Get(e Element) (RGB, bool) {
	switch e {
	case ElementHome:
		return c.Home, true
	case ElementAway:
		return c.Away, true
	case ElementTimer:
		return c.Timer, true
	case ElementText:
		return c.Text, true
	}
	return RGB{}, false
}

// Set overwrites the colour for e. It reports false and leaves c untouched
// if e is unknown.
func (c *Colors) Set(e Element, rgb RGB) bool {
	switch e {
	case ElementHome:
		c.Home = rgb
	case ElementAway:
		c.Away = rgb
	case ElementTimer:
		c.Timer = rgb
	case ElementText:
		c.Text = rgb
	default:
		return false
	}
	return true
}
