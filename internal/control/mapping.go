package control

import (
	"math"

	t "screenlink/internal/types"
)

// DefaultSensitivity amplifies pointer motion from coarse senders.
const DefaultSensitivity = 5.0

// MapRelative turns normalized deltas into an absolute pointer position:
//
//	x = dx*W*S + (1-S)*cx
//	y = dy*H*S + (1-S)*cy
//
// Results are clamped to the screen and then truncated toward zero.
func MapRelative(dx, dy float64, g t.Geometry, s float64, cx, cy int) (int, int) {
	x := dx*float64(g.Width)*s + (1-s)*float64(cx)
	y := dy*float64(g.Height)*s + (1-s)*float64(cy)
	return clamp(x, g.Width), clamp(y, g.Height)
}

// clamp bounds v to [0, size-1] before converting, so huge values cannot
// overflow the int conversion.
func clamp(v float64, size int) int {
	if size <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Min(math.Max(v, 0), float64(size-1)))
}
