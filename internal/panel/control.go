package panel

import (
	"fmt"

	"github.com/chase3718/synth3d/internal/param"
	"github.com/go-gl/mathgl/mgl64"
)

// Class groups controls that are hit-tested together.
type Class int

const (
	None Class = iota // nothing hit: the background
	Key
	Fader
	Knob
)

func (c Class) String() string {
	switch c {
	case Key:
		return "key"
	case Fader:
		return "fader"
	case Knob:
		return "knob"
	}
	return "none"
}

// ID addresses one control. Indexes start at 1 within each class.
type ID struct {
	Class Class
	Index int
}

// String renders the scene node name for id, e.g. "key_12".
func (id ID) String() string {
	return fmt.Sprintf("%s_%d", id.Class, id.Index)
}

// Shape is the unit primitive a hit volume is built from.
type Shape int

const (
	Box      Shape = iota // unit cube centred on the origin
	Cylinder              // radius 0.5, height 1, axis along y, centred on the origin
)

// Volume is an enlarged collision volume: a unit shape under a world transform.
type Volume struct {
	Shape     Shape
	Transform mgl64.Mat4
}

// Center returns the world-space centre of the volume.
func (v Volume) Center() mgl64.Vec3 {
	return v.Transform.Col(3).Vec3()
}

// Bounds is an axis-aligned box given by centre and size.
type Bounds struct {
	Center mgl64.Vec3
	Size   mgl64.Vec3
}

// Scale multiplies each size component by the matching factor.
func (b Bounds) Scale(f mgl64.Vec3) Bounds {
	return Bounds{
		Center: b.Center,
		Size:   mgl64.Vec3{b.Size[0] * f[0], b.Size[1] * f[1], b.Size[2] * f[2]},
	}
}

func (b Bounds) volume(s Shape) Volume {
	t := mgl64.Translate3D(b.Center[0], b.Center[1], b.Center[2]).
		Mul4(mgl64.Scale3D(b.Size[0], b.Size[1], b.Size[2]))
	return Volume{Shape: s, Transform: t}
}

// Range is the raw geometric travel of a fader or knob.
type Range struct {
	Min, Max float64
}

// Control is one record of the registry arena.
type Control struct {
	ID     ID
	Slot   int         // position in the registry arena
	Param  param.Param // bound parameter; faders and knobs only
	Range  Range       // faders and knobs only
	Volume Volume      // enlarged hit volume
	Black  bool        // keys only
}

// IsBlack reports whether key index i falls on a black key of the
// twelve-step pattern.
func IsBlack(i int) bool {
	switch ((i % 12) + 12) % 12 {
	case 1, 3, 5, 8, 10:
		return true
	}
	return false
}
