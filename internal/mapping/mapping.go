// Package mapping converts pointer deltas into bounded control values.
//
// Raw values live in a control's geometric range (an angle for knobs, a depth
// offset for faders). Normalized values live in [0,1] and are inverted with
// respect to the raw axis: the raw minimum is normalized 1.
package mapping

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultKnobGearing  = 0.03  // radians per pixel
	DefaultFaderGearing = 0.015 // position units per pixel
)

// Gearing holds the per-class pixel-to-raw scale factors.
type Gearing struct {
	Knob  float64
	Fader float64
}

func DefaultGearing() Gearing {
	return Gearing{Knob: DefaultKnobGearing, Fader: DefaultFaderGearing}
}

// Axis is one bounded raw dimension with its gearing.
type Axis struct {
	Min, Max float64
	Gearing  float64
}

// Span returns Max-Min.
func (a Axis) Span() float64 { return a.Max - a.Min }

// Clamp bounds raw to [Min, Max]. NaN collapses to Min.
func (a Axis) Clamp(raw float64) float64 {
	if math.IsNaN(raw) {
		return a.Min
	}
	return mgl64.Clamp(raw, a.Min, a.Max)
}

// Step accumulates a pointer delta into raw.
func (a Axis) Step(raw, dy float64) float64 {
	return a.Clamp(raw + a.Gearing*dy)
}

// Normalize maps raw onto [0,1], Min → 1 and Max → 0.
func (a Axis) Normalize(raw float64) float64 {
	span := a.Span()
	if span <= 0 {
		return 1
	}
	return Clamp01(1 - (a.Clamp(raw)-a.Min)/span)
}

// Raw is the inverse of Normalize.
func (a Axis) Raw(v float64) float64 {
	return a.Clamp(a.Min + (1-Clamp01(v))*a.Span())
}

// Clamp01 bounds v to [0,1]. NaN collapses to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return mgl64.Clamp(v, 0, 1)
}
