// Package param names the synthesizer parameters driven by the control panel
// and the unit formulas shared by the sound engine and the display.
package param

import "fmt"

// Param identifies one continuously controlled synthesizer parameter.
type Param int

const (
	Amp Param = iota
	Attack
	Decay
	Sustain
	Release
	FilterCutoff
	FilterResonance

	NumParams
)

var names = [NumParams]string{
	Amp:             "amp",
	Attack:          "attack",
	Decay:           "decay",
	Sustain:         "sustain",
	Release:         "release",
	FilterCutoff:    "filterCutoff",
	FilterResonance: "filterResonance",
}

func (p Param) String() string {
	if !p.Valid() {
		return fmt.Sprintf("param(%d)", int(p))
	}
	return names[p]
}

// Valid reports whether p is one of the known parameters.
func (p Param) Valid() bool {
	return p >= 0 && p < NumParams
}

// Parse looks a parameter up by its wire name ("amp", "filterCutoff", ...).
func Parse(name string) (Param, bool) {
	for p, n := range names {
		if n == name {
			return Param(p), true
		}
	}
	return 0, false
}

// All returns every parameter in declaration order.
func All() []Param {
	out := make([]Param, 0, NumParams)
	for p := Param(0); p < NumParams; p++ {
		out = append(out, p)
	}
	return out
}
