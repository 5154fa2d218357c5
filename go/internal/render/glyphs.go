package render

import "strings"

// Large digits are 10 px wide and fill the full 32 px panel height.
const (
	DigitWidth  = 10
	DigitHeight = 32

	SmallOneWidth  = 6
	SmallOneHeight = 8

	StatusSize = 3
)

// glyph is a bitmap stored as rows of 'X' (lit) and ' ' (dark).
type glyph []string

func (g glyph) width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g glyph) lit(x, y int) bool {
	return y >= 0 && y < len(g) && x >= 0 && x < len(g[y]) && g[y][x] == 'X'
}

// run is a row pattern repeated n times.
type run struct {
	row string
	n   int
}

func expand(runs ...run) glyph {
	var g glyph
	for _, r := range runs {
		for i := 0; i < r.n; i++ {
			g = append(g, r.row)
		}
	}
	return g
}

const (
	capTop   = "  XXXXXX  "
	capMid   = " XXXXXXXX "
	bar      = "XXXXXXXXXX"
	sides    = "XXX    XXX"
	leftBar  = "XXX       "
	rightBar = "       XXX"
	oneStem  = "    XXX   "
	oneBase  = "XXXXXXXXX "
	threeMid = "   XXXXXXX"
)

var largeDigits = [10]glyph{
	0: expand(run{capTop, 1}, run{capMid, 1}, run{bar, 1}, run{sides, 26}, run{bar, 1}, run{capMid, 1}, run{capTop, 1}),
	1: expand(
		run{"    XXX   ", 1},
		run{"   XXXX   ", 1},
		run{"  XXXXX   ", 1},
		run{" XXXXXX   ", 1},
		run{"XXXXXXX   ", 1},
		run{oneStem, 24},
		run{oneBase, 3},
	),
	2: expand(run{capTop, 1}, run{capMid, 1}, run{bar, 1}, run{sides, 2}, run{rightBar, 10}, run{bar, 2}, run{leftBar, 12}, run{bar, 3}),
	3: expand(run{capTop, 1}, run{capMid, 1}, run{bar, 1}, run{sides, 2}, run{rightBar, 9}, run{threeMid, 3}, run{rightBar, 10}, run{sides, 2}, run{bar, 1}, run{capMid, 1}, run{capTop, 1}),
	4: expand(run{sides, 14}, run{bar, 3}, run{rightBar, 15}),
	5: expand(run{bar, 3}, run{leftBar, 11}, run{bar, 2}, run{rightBar, 11}, run{sides, 2}, run{bar, 1}, run{capMid, 1}, run{capTop, 1}),
	6: expand(run{capTop, 1}, run{capMid, 1}, run{bar, 1}, run{leftBar, 11}, run{bar, 2}, run{sides, 13}, run{bar, 1}, run{capMid, 1}, run{capTop, 1}),
	7: expand(run{bar, 3}, run{rightBar, 29}),
	8: expand(run{capTop, 1}, run{capMid, 1}, run{bar, 1}, run{sides, 11}, run{bar, 2}, run{sides, 13}, run{bar, 1}, run{capMid, 1}, run{capTop, 1}),
	9: expand(run{capTop, 1}, run{capMid, 1}, run{bar, 1}, run{sides, 13}, run{bar, 2}, run{rightBar, 11}, run{bar, 1}, run{capMid, 1}, run{capTop, 1}),
}

// smallOne is the tens marker drawn for scores 10 to 19.
var smallOne = glyph{
	"  XX  ",
	" XXX  ",
	"XXXX  ",
	"  XX  ",
	"  XX  ",
	"  XX  ",
	"XXXXXX",
	"XXXXXX",
}

var statusGlyph = expand(run{strings.Repeat("X", StatusSize), StatusSize})
