package u

import "math"

// ScaleSize fits a w×h source into a boxW×boxH box, keeping the aspect ratio. Sources which already
// fit keep their size.
func ScaleSize(w int, h int, boxW int, boxH int) (int, int) {
	if w <= 0 || h <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	if w <= boxW && h <= boxH {
		return w, h
	}

	var outW, outH int
	if float64(boxW)/float64(w) <= float64(boxH)/float64(h) {
		outW = boxW
		outH = int(math.Round(float64(h) * float64(boxW) / float64(w)))
	} else {
		outH = boxH
		outW = int(math.Round(float64(w) * float64(boxH) / float64(h)))
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}
