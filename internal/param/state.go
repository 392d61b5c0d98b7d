package param

// State is the complete set of synthesizer settings. Every field holds a
// normalized value in [0,1].
type State struct {
	FilterCutoff    float64 `json:"filterCutoff"`
	FilterResonance float64 `json:"filterResonance"`
	Amp             float64 `json:"amp"`
	Attack          float64 `json:"attack"`
	Decay           float64 `json:"decay"`
	Sustain         float64 `json:"sustain"`
	Release         float64 `json:"release"`
}

// DefaultState returns the settings a fresh instrument starts with.
func DefaultState() State {
	return State{
		FilterCutoff:    0,
		FilterResonance: 0,
		Amp:             1,
		Attack:          1,
		Decay:           1,
		Sustain:         0.5,
		Release:         1,
	}
}

func (s *State) field(p Param) *float64 {
	switch p {
	case Amp:
		return &s.Amp
	case Attack:
		return &s.Attack
	case Decay:
		return &s.Decay
	case Sustain:
		return &s.Sustain
	case Release:
		return &s.Release
	case FilterCutoff:
		return &s.FilterCutoff
	case FilterResonance:
		return &s.FilterResonance
	}
	return nil
}

// Get returns the value stored for p, or 0 for an unknown parameter.
func (s State) Get(p Param) float64 {
	if f := s.field(p); f != nil {
		return *f
	}
	return 0
}

// Set stores v for p. Unknown parameters are ignored.
func (s *State) Set(p Param, v float64) {
	if f := s.field(p); f != nil {
		*f = v
	}
}

// Changed lists the parameters whose values differ between s and o.
func (s State) Changed(o State) []Param {
	var out []Param
	for p := Param(0); p < NumParams; p++ {
		if s.Get(p) != o.Get(p) {
			out = append(out, p)
		}
	}
	return out
}
