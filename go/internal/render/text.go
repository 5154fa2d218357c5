package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextScale is the integer upscale applied to the 7x13 bitmap font.
const TextScale = 2

var textFace font.Face = basicfont.Face7x13

// textMask rasterizes s into an alpha mask at the font's native size.
// The mask origin is the top-left of the line box.
func textMask(s string) *image.Alpha {
	metrics := textFace.Metrics()
	width := font.MeasureString(textFace, s).Ceil()
	height := metrics.Height.Ceil()
	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	if width == 0 {
		return mask
	}

	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: textFace,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	drawer.DrawString(s)
	return mask
}

// textSize returns the on-panel size of s at scale.
func textSize(s string, scale int) image.Point {
	b := textMask(s).Bounds()
	return image.Pt(b.Dx()*scale, b.Dy()*scale)
}

// drawText blits s with its top-left at (x, y), each font pixel becoming a
// scale x scale block. Pixels outside clip are skipped.
func drawText(dst *image.RGBA, s string, x, y, scale int, c color.RGBA, clip image.Rectangle) {
	mask := textMask(s)
	b := mask.Bounds()
	for my := b.Min.Y; my < b.Max.Y; my++ {
		for mx := b.Min.X; mx < b.Max.X; mx++ {
			if mask.AlphaAt(mx, my).A == 0 {
				continue
			}
			fillRect(dst, image.Rect(x+mx*scale, y+my*scale, x+(mx+1)*scale, y+(my+1)*scale).Intersect(clip), c)
		}
	}
}
