package viz

import "math"

// RGB is one 8-bit-per-channel color sample.
type RGB struct{ R, G, B byte }

type colorStop struct {
	pos    float64
	r, g, b byte
}

// lut implements the fixed dark-blue -> cyan -> green ->
// yellow -> red gradient, grounded on
// original_source/src-service/src/processor.rs's build_color_lut, which
// defines the same six stops.
var lutStops = []colorStop{
	{0.00, 8, 8, 40},
	{0.15, 20, 40, 140},
	{0.35, 20, 180, 200},
	{0.60, 60, 200, 60},
	{0.80, 230, 220, 40},
	{1.00, 230, 30, 20},
}

const lutSize = 256

var lut [lutSize]RGB

func init() {
	for i := 0; i < lutSize; i++ {
		t := float64(i) / float64(lutSize-1)
		lut[i] = interpolateStops(t)
	}
}

func interpolateStops(t float64) RGB {
	if t <= lutStops[0].pos {
		s := lutStops[0]
		return RGB{s.r, s.g, s.b}
	}
	last := lutStops[len(lutStops)-1]
	if t >= last.pos {
		return RGB{last.r, last.g, last.b}
	}
	for i := 1; i < len(lutStops); i++ {
		a, b := lutStops[i-1], lutStops[i]
		if t <= b.pos {
			span := b.pos - a.pos
			frac := 0.0
			if span > 0 {
				frac = (t - a.pos) / span
			}
			return RGB{
				R: lerpByte(a.r, b.r, frac),
				G: lerpByte(a.g, b.g, frac),
				B: lerpByte(a.b, b.b, frac),
			}
		}
	}
	return RGB{last.r, last.g, last.b}
}

func lerpByte(a, b byte, t float64) byte {
	return byte(float64(a) + t*(float64(b)-float64(a)))
}

// magnitudeToColor gamma-corrects a normalized [0,1] magnitude (per the
// original's t.powf(0.7)) before looking it up in the fixed LUT.
func magnitudeToColor(norm float64) RGB {
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	gamma := math.Pow(norm, 0.7)
	idx := int(gamma * float64(lutSize-1))
	return lut[idx]
}
