package report

import (
	"fmt"
	"math"
)

// Color-scale endpoints shared by the terminal and workbook renderers:
// strong methods (small |z|) shade toward green, weak ones toward red. NaN
// cells get a sentinel warning color so degenerate aggregation never
// crashes a renderer.
const (
	strongHex   = "#2E7D32"
	weakHex     = "#C62828"
	sentinelHex = "#F9A825"
)

// ScaleColor maps an absolute z-score onto the strong-to-weak ramp given
// the column's min and max absolute z. The minimum maps exactly to the
// strong endpoint, the maximum to the weak endpoint.
func ScaleColor(absZ, min, max float64) string {
	if math.IsNaN(absZ) {
		return sentinelHex
	}
	t := 0.0
	if max > min {
		t = (absZ - min) / (max - min)
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return lerpHex(strongHex, weakHex, t)
}

func lerpHex(a, b string, t float64) string {
	ar, ag, ab := rgb(a)
	br, bg, bb := rgb(b)
	lerp := func(x, y int) int { return int(math.Round(float64(x) + t*float64(y-x))) }
	return fmt.Sprintf("#%02X%02X%02X", lerp(ar, br), lerp(ag, bg), lerp(ab, bb))
}

func rgb(hex string) (r, g, b int) {
	fmt.Sscanf(hex, "#%02X%02X%02X", &r, &g, &b)
	return r, g, b
}
