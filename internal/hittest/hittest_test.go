package hittest

import (
	"math"
	"testing"

	"github.com/chase3718/synth3d/internal/camera"
	"github.com/chase3718/synth3d/internal/panel"
	"github.com/chase3718/synth3d/internal/param"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	width  = 2400
	height = 1000
)

func newTester(t *testing.T, l panel.Layout) (*Tester, *panel.Registry) {
	t.Helper()
	reg, err := panel.New(l)
	if err != nil {
		t.Fatalf("panel.New: %v", err)
	}
	return New(reg, camera.NewRig(nil), width, height), reg
}

// screen projects a world point to a top-left pixel location.
func screen(tt *Tester, p mgl64.Vec3) mgl64.Vec2 {
	view, proj := tt.cam.Matrices(tt.w, tt.h)
	win := mgl64.Project(p, view, proj, 0, 0, tt.w, tt.h)
	return mgl64.Vec2{win[0], float64(tt.h) - win[1]}
}

func TestIntersectBox(t *testing.T) {
	v := panel.Volume{Shape: panel.Box, Transform: mgl64.Translate3D(0, 0, -5).Mul4(mgl64.Scale3D(2, 2, 2))}
	tests := []struct {
		name string
		ray  Ray
		t    float64
		ok   bool
	}{
		{"front", Ray{mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -1}}, 4, true},
		{"edge", Ray{mgl64.Vec3{0.99, 0, 0}, mgl64.Vec3{0, 0, -1}}, 4, true},
		{"beside", Ray{mgl64.Vec3{1.01, 0, 0}, mgl64.Vec3{0, 0, -1}}, 0, false},
		{"behind", Ray{mgl64.Vec3{0, 0, -10}, mgl64.Vec3{0, 0, -1}}, 0, false},
		{"inside", Ray{mgl64.Vec3{0, 0, -5}, mgl64.Vec3{1, 0, 0}}, 0, true},
	}
	for _, tt := range tests {
		got, ok := Intersect(tt.ray, v)
		if ok != tt.ok || (ok && math.Abs(got-tt.t) > 1e-9) {
			t.Fatalf("%s: Intersect = %g, %v; want %g, %v", tt.name, got, ok, tt.t, tt.ok)
		}
	}
}

func TestIntersectCylinder(t *testing.T) {
	// radius 1, height 2, centred at (0, 0, -5)
	v := panel.Volume{Shape: panel.Cylinder, Transform: mgl64.Translate3D(0, 0, -5).Mul4(mgl64.Scale3D(2, 2, 2))}
	tests := []struct {
		name string
		ray  Ray
		t    float64
		ok   bool
	}{
		{"side", Ray{mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -1}}, 4, true},
		{"cap", Ray{mgl64.Vec3{0, 5, -5}, mgl64.Vec3{0, -1, 0}}, 4, true},
		// inside the bounding box corner but outside the round
		{"corner", Ray{mgl64.Vec3{0.9, 0, 0}, mgl64.Vec3{0, 0, -1}}, 5 - math.Sqrt(1-0.81), true},
		{"box corner miss", Ray{mgl64.Vec3{0.95, 5, -5.95}, mgl64.Vec3{0, -1, 0}}, 0, false},
		{"above", Ray{mgl64.Vec3{0, 1.5, 0}, mgl64.Vec3{0, 0, -1}}, 0, false},
	}
	for _, tt := range tests {
		got, ok := Intersect(tt.ray, v)
		if ok != tt.ok || (ok && math.Abs(got-tt.t) > 1e-9) {
			t.Fatalf("%s: Intersect = %g, %v; want %g, %v", tt.name, got, ok, tt.t, tt.ok)
		}
	}
}

func TestHitTestDefaultLayout(t *testing.T) {
	tt, reg := newTester(t, panel.DefaultLayout())
	for slot := 0; slot < reg.Len(); slot++ {
		c := reg.Control(slot)
		h := tt.HitTest(screen(tt, c.Volume.Center()))
		if h.ID != c.ID || h.Slot != slot {
			t.Fatalf("centre of %s hit %s", c.ID, h.ID)
		}
		if c.ID.Class == panel.Key {
			keys := tt.Keys(screen(tt, c.Volume.Center()))
			if len(keys) != 1 || keys[0] != c.ID {
				t.Fatalf("Keys at %s = %v", c.ID, keys)
			}
		}
	}
	if h := tt.HitTest(mgl64.Vec2{1, 1}); !h.Background() {
		t.Fatalf("corner hit %s", h.ID)
	}
}

func TestHitTestPriority(t *testing.T) {
	b := panel.Bounds{Center: mgl64.Vec3{0, 0, 0.15}, Size: mgl64.Vec3{0.05, 0.02, 0.15}}
	l := panel.Layout{Controls: []panel.Spec{
		{ID: panel.ID{Class: panel.Key, Index: 1}, Bounds: b},
		// a small fader buried in the key, enlarged past it
		{
			ID:       panel.ID{Class: panel.Fader, Index: 1},
			Param:    param.Attack,
			Range:    panel.Range{Min: -0.7, Max: 0.7},
			Bounds:   panel.Bounds{Center: b.Center, Size: mgl64.Vec3{0.01, 0.01, 0.01}},
			Oversize: mgl64.Vec3{3.75, 3, 3},
		},
	}}
	tt, _ := newTester(t, l)
	pt := screen(tt, b.Center)
	if h := tt.HitTest(pt); h.ID.Class != panel.Fader {
		t.Fatalf("hit %s, want fader_1", h.ID)
	}
	if h := tt.HitTestOrder(pt, []panel.Class{panel.Key}); h.ID.Class != panel.Key {
		t.Fatalf("hit %s, want key_1", h.ID)
	}
	if keys := tt.Keys(pt); len(keys) != 1 {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestNearestWithinClass(t *testing.T) {
	c := mgl64.Vec3{0, 0, 0.1}
	l := panel.Layout{Controls: []panel.Spec{
		{ID: panel.ID{Class: panel.Key, Index: 1}, Bounds: panel.Bounds{Center: c, Size: mgl64.Vec3{0.05, 0.05, 0.05}}},
		{ID: panel.ID{Class: panel.Key, Index: 2}, Bounds: panel.Bounds{Center: c, Size: mgl64.Vec3{0.1, 0.1, 0.1}}},
	}}
	tt, _ := newTester(t, l)
	pt := screen(tt, c)
	if h := tt.HitTest(pt); h.ID.Index != 2 {
		t.Fatalf("hit %s, want the enclosing key_2", h.ID)
	}
	keys := tt.Keys(pt)
	if len(keys) != 2 || keys[0].Index != 1 || keys[1].Index != 2 {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestKeysTouchRadius(t *testing.T) {
	tt, reg := newTester(t, panel.DefaultLayout())
	a, _ := reg.ControlAt(panel.Key, 12)
	b, _ := reg.ControlAt(panel.Key, 13)
	gap := screen(tt, a.Volume.Center().Add(b.Volume.Center()).Mul(0.5))

	if keys := tt.Keys(gap); len(keys) != 0 {
		t.Fatalf("Keys in gap = %v", keys)
	}
	tt.SetTouchRadius(20)
	keys := tt.Keys(gap)
	if len(keys) != 2 || keys[0] != a.ID || keys[1] != b.ID {
		t.Fatalf("Keys with radius = %v", keys)
	}
}

func TestNoViewport(t *testing.T) {
	tt, _ := newTester(t, panel.DefaultLayout())
	tt.SetViewport(0, 0)
	if h := tt.HitTest(mgl64.Vec2{10, 10}); !h.Background() {
		t.Fatalf("hit %s without a viewport", h.ID)
	}
}
