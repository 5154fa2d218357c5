package render

import (
	"image"
	"image/color"
	"image/draw"
)

var black = color.RGBA{A: 0xff}

func blank(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.SetRGBA(x, y, c)
		}
	}
}

// drawGlyph paints the lit cells of g with its top-left at (x, y).
func drawGlyph(dst *image.RGBA, g glyph, x, y int, c color.RGBA) {
	bounds := dst.Bounds()
	for gy := range g {
		for gx := 0; gx < g.width(); gx++ {
			if !g.lit(gx, gy) {
				continue
			}
			p := image.Pt(x+gx, y+gy)
			if p.In(bounds) {
				dst.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}
