// Package display drives the instrument's two-line LCD: it formats
// parameter readouts and ships them as wire frames to the display board.
package display

import (
	"fmt"
	"math"

	"github.com/chase3718/synth3d/internal/param"
)

// Readout formats the LCD title and value for p at normalized v.
func Readout(p param.Param, v float64) (title, value string) {
	switch p {
	case param.Amp:
		return "amp", fmt.Sprintf("%d%%", int(param.Percent(v)))
	case param.FilterCutoff:
		return "cutoff", fmt.Sprintf("%.2f kHz", param.Hertz(v)/1000)
	case param.FilterResonance:
		return "res", fmt.Sprintf("%d", int(math.Floor(param.Decibels(v))))
	case param.Attack, param.Decay, param.Release:
		return p.String(), fmt.Sprintf("%d ms", int(param.Milliseconds(v)))
	case param.Sustain:
		return "sustain", fmt.Sprintf("%d%%", int(param.Percent(v)))
	}
	return p.String(), fmt.Sprintf("%.3f", v)
}
