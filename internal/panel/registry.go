// Package panel describes the interactive controls of the instrument: their
// identity, enlarged hit volumes and raw travel. A Registry is an immutable
// arena built once at start-up; everything that needs control geometry reads
// it by slot or by ID.
package panel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chase3718/synth3d/internal/param"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrDuplicateControl = errors.New("panel: duplicate control")
	ErrMissingControl   = errors.New("panel: missing control")
	ErrEmptyRange       = errors.New("panel: empty control range")
	ErrDegenerateVolume = errors.New("panel: degenerate hit volume")
	ErrUnboundParam     = errors.New("panel: control has no parameter")
	ErrExtraControl     = errors.New("panel: unexpected control")
)

// Spec is the layout entry for one control.
type Spec struct {
	ID       ID
	Param    param.Param
	Range    Range
	Bounds   Bounds     // visual bounding box
	Oversize mgl64.Vec3 // hit volume scale relative to Bounds; zero means 1
}

// Layout lists the controls to register. Expect and Params, when set, are
// the controls and parameter bindings the layout must provide.
type Layout struct {
	Controls []Spec
	Expect   map[Class]int // exact number of controls per class
	Params   []param.Param // parameters that must be bound
}

// Registry is the immutable control arena.
type Registry struct {
	controls []Control
	byClass  map[Class][]int
	byID     map[ID]int
	byParam  [param.NumParams]int
}

// New validates layout and builds the arena. Any error is a configuration
// problem and should abort start-up.
func New(layout Layout) (*Registry, error) {
	specs := append([]Spec(nil), layout.Controls...)
	sort.SliceStable(specs, func(i, j int) bool {
		if specs[i].ID.Class != specs[j].ID.Class {
			return specs[i].ID.Class > specs[j].ID.Class
		}
		return specs[i].ID.Index < specs[j].ID.Index
	})

	r := &Registry{
		byClass: make(map[Class][]int),
		byID:    make(map[ID]int),
	}
	for i := range r.byParam {
		r.byParam[i] = -1
	}

	for _, s := range specs {
		c, err := buildControl(s)
		if err != nil {
			return nil, err
		}
		if _, ok := r.byID[s.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateControl, s.ID)
		}
		if c.ID.Class != Key {
			if prev := r.byParam[c.Param]; prev >= 0 {
				return nil, fmt.Errorf("%w: %s already bound to %s", ErrDuplicateControl, c.Param, r.controls[prev].ID)
			}
		}

		c.Slot = len(r.controls)
		r.controls = append(r.controls, c)
		r.byID[c.ID] = c.Slot
		r.byClass[c.ID.Class] = append(r.byClass[c.ID.Class], c.Slot)
		if c.ID.Class != Key {
			r.byParam[c.Param] = c.Slot
		}
	}

	if len(r.controls) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrMissingControl)
	}
	for class, slots := range r.byClass {
		for i, slot := range slots {
			if want := i + 1; r.controls[slot].ID.Index != want {
				return nil, fmt.Errorf("%w: %s", ErrMissingControl, ID{Class: class, Index: want})
			}
		}
	}
	for _, class := range []Class{Knob, Fader, Key} {
		want, ok := layout.Expect[class]
		if !ok {
			continue
		}
		switch got := len(r.byClass[class]); {
		case got < want:
			return nil, fmt.Errorf("%w: %s", ErrMissingControl, ID{Class: class, Index: got + 1})
		case got > want:
			return nil, fmt.Errorf("%w: %s", ErrExtraControl, ID{Class: class, Index: want + 1})
		}
	}
	for _, p := range layout.Params {
		if !p.Valid() || r.byParam[p] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnboundParam, p)
		}
	}
	return r, nil
}

func buildControl(s Spec) (Control, error) {
	c := Control{ID: s.ID, Param: s.Param, Range: s.Range}
	if s.ID.Index < 1 {
		return c, fmt.Errorf("panel: %s: index must be >= 1", s.ID)
	}

	shape := Box
	switch s.ID.Class {
	case Key:
		c.Black = IsBlack(s.ID.Index)
		c.Param = -1
		c.Range = Range{}
	case Fader, Knob:
		if !s.Param.Valid() {
			return c, fmt.Errorf("%w: %s", ErrUnboundParam, s.ID)
		}
		if !(s.Range.Min < s.Range.Max) {
			return c, fmt.Errorf("%w: %s [%g, %g]", ErrEmptyRange, s.ID, s.Range.Min, s.Range.Max)
		}
		if s.ID.Class == Knob {
			shape = Cylinder
		}
	default:
		return c, fmt.Errorf("panel: %s: unknown control class", s.ID)
	}

	over := s.Oversize
	if over == (mgl64.Vec3{}) {
		over = mgl64.Vec3{1, 1, 1}
	}
	b := s.Bounds.Scale(over)
	for _, d := range b.Size {
		if !(d > 0) {
			return c, fmt.Errorf("%w: %s size %v", ErrDegenerateVolume, s.ID, b.Size)
		}
	}
	c.Volume = b.volume(shape)
	return c, nil
}

// Len returns the number of controls in the arena.
func (r *Registry) Len() int { return len(r.controls) }

// Control returns the record stored at slot.
func (r *Registry) Control(slot int) Control { return r.controls[slot] }

// Lookup finds a control by ID.
func (r *Registry) Lookup(id ID) (Control, bool) {
	slot, ok := r.byID[id]
	if !ok {
		return Control{}, false
	}
	return r.controls[slot], true
}

// ControlAt finds a control by class and 1-based index.
func (r *Registry) ControlAt(class Class, index int) (Control, bool) {
	return r.Lookup(ID{Class: class, Index: index})
}

// AllOfClass returns the controls of class ordered by index.
func (r *Registry) AllOfClass(class Class) []Control {
	slots := r.byClass[class]
	out := make([]Control, len(slots))
	for i, slot := range slots {
		out[i] = r.controls[slot]
	}
	return out
}

// ByParam returns the fader or knob bound to p.
func (r *Registry) ByParam(p param.Param) (Control, bool) {
	if !p.Valid() || r.byParam[p] < 0 {
		return Control{}, false
	}
	return r.controls[r.byParam[p]], true
}

// Slot returns the arena slot of id.
func (r *Registry) Slot(id ID) (int, bool) {
	slot, ok := r.byID[id]
	return slot, ok
}
