package panel

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/chase3718/synth3d/internal/param"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	NumKeys   = 25
	NumFaders = 4
	NumKnobs  = 3

	MinFaderZ = -0.7
	MaxFaderZ = 0.7
)

var (
	MinKnobAngle = -0.7 * math.Pi
	MaxKnobAngle = 0.7 * math.Pi
)

// Node is a named scene object and its visual bounds, as exported by the
// scene collaborator ("key_1".."key_25", "fader_1"..., "knob_1"...).
type Node struct {
	Name   string
	Bounds Bounds
}

// ParseName decodes a scene node name into a control ID.
func ParseName(name string) (ID, bool) {
	prefix, num, ok := strings.Cut(name, "_")
	if !ok {
		return ID{}, false
	}
	var class Class
	switch prefix {
	case "key":
		class = Key
	case "fader":
		class = Fader
	case "knob":
		class = Knob
	default:
		return ID{}, false
	}
	index, err := strconv.Atoi(num)
	if err != nil || index < 1 {
		return ID{}, false
	}
	return ID{Class: class, Index: index}, true
}

// Rig describes how scene nodes become controls.
type Rig struct {
	Keys          int // expected number of keys
	KnobRange     Range
	FaderRange    Range
	KnobOversize  mgl64.Vec3
	FaderOversize mgl64.Vec3
	KeyOversize   mgl64.Vec3
	KnobParams    []param.Param // knob_1 first
	FaderParams   []param.Param // fader_1 first
}

// DefaultRig binds the three knobs to amp/cutoff/resonance and the four
// faders to the ADSR envelope.
func DefaultRig() Rig {
	return Rig{
		Keys:          NumKeys,
		KnobRange:     Range{Min: MinKnobAngle, Max: MaxKnobAngle},
		FaderRange:    Range{Min: MinFaderZ, Max: MaxFaderZ},
		KnobOversize:  mgl64.Vec3{3, 3, 3},
		FaderOversize: mgl64.Vec3{3.75, 3, 3},
		KeyOversize:   mgl64.Vec3{1, 1, 1},
		KnobParams:    []param.Param{param.Amp, param.FilterCutoff, param.FilterResonance},
		FaderParams:   []param.Param{param.Attack, param.Decay, param.Sustain, param.Release},
	}
}

// Layout turns scene nodes into a Layout. Nodes whose names do not parse are
// skipped; gaps, missing controls and unbound parameters are reported later
// by New. The rig expects Keys keys and one knob or fader per parameter in
// KnobParams and FaderParams.
func (rig Rig) Layout(nodes []Node, logger *slog.Logger) Layout {
	if logger == nil {
		logger = slog.Default()
	}
	l := Layout{
		Expect: map[Class]int{
			Key:   rig.Keys,
			Fader: len(rig.FaderParams),
			Knob:  len(rig.KnobParams),
		},
		Params: append(append([]param.Param(nil), rig.KnobParams...), rig.FaderParams...),
	}
	for _, n := range nodes {
		id, ok := ParseName(n.Name)
		if !ok {
			logger.Warn("panel: ignoring node with malformed name", "node", n.Name)
			continue
		}
		s := Spec{ID: id, Bounds: n.Bounds, Param: -1}
		switch id.Class {
		case Key:
			s.Oversize = rig.KeyOversize
		case Fader:
			s.Range = rig.FaderRange
			s.Oversize = rig.FaderOversize
			if id.Index <= len(rig.FaderParams) {
				s.Param = rig.FaderParams[id.Index-1]
			}
		case Knob:
			s.Range = rig.KnobRange
			s.Oversize = rig.KnobOversize
			if id.Index <= len(rig.KnobParams) {
				s.Param = rig.KnobParams[id.Index-1]
			}
		}
		l.Controls = append(l.Controls, s)
	}
	return l
}

// DefaultNodes returns the geometry of the stock instrument: a 25-key
// keyboard along x at the front, knobs at the back left and faders at the
// back right. Units are scene units with y up.
func DefaultNodes() []Node {
	var nodes []Node
	const pitch = 0.06
	for i := 1; i <= NumKeys; i++ {
		x := float64(i-(NumKeys+1)/2) * pitch
		b := Bounds{Center: mgl64.Vec3{x, 0, 0.15}, Size: mgl64.Vec3{0.055, 0.02, 0.16}}
		if IsBlack(i) {
			b = Bounds{Center: mgl64.Vec3{x, 0.01, 0.12}, Size: mgl64.Vec3{0.055, 0.03, 0.1}}
		}
		nodes = append(nodes, Node{Name: ID{Key, i}.String(), Bounds: b})
	}
	for i := 1; i <= NumKnobs; i++ {
		x := -0.5 + float64(i-1)*0.15
		nodes = append(nodes, Node{
			Name:   ID{Knob, i}.String(),
			Bounds: Bounds{Center: mgl64.Vec3{x, 0.015, -0.15}, Size: mgl64.Vec3{0.04, 0.03, 0.04}},
		})
	}
	for i := 1; i <= NumFaders; i++ {
		x := 0.15 + float64(i-1)*0.12
		nodes = append(nodes, Node{
			Name:   ID{Fader, i}.String(),
			Bounds: Bounds{Center: mgl64.Vec3{x, 0.01, -0.15}, Size: mgl64.Vec3{0.02, 0.02, 0.04}},
		})
	}
	return nodes
}

// DefaultLayout is DefaultRig applied to DefaultNodes.
func DefaultLayout() Layout {
	return DefaultRig().Layout(DefaultNodes(), nil)
}
