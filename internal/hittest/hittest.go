// Package hittest resolves a 2D pointer location to the control under it by
// casting a ray through the camera against the enlarged hit volumes of the
// panel. Hit testing only reads geometry.
package hittest

import (
	"math"
	"sort"

	"github.com/chase3718/synth3d/internal/panel"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultOrder is the class priority used by HitTest.
var DefaultOrder = []panel.Class{panel.Knob, panel.Fader, panel.Key}

// ringSamples is the number of extra rays cast around a touch for Keys.
const ringSamples = 8

// Viewpoint supplies the camera matrices for a viewport size.
type Viewpoint interface {
	Matrices(w, h int) (view, proj mgl64.Mat4)
}

// Hit is the result of a hit test. Class None means the background.
type Hit struct {
	Class panel.Class
	ID    panel.ID
	Slot  int
	T     float64 // ray parameter of the entry point
}

// Background reports whether nothing was hit.
func (h Hit) Background() bool { return h.Class == panel.None }

// Tester casts pointer rays into the registry. Viewport changes and queries
// must come from the same goroutine.
type Tester struct {
	reg    *panel.Registry
	cam    Viewpoint
	w, h   int
	radius float64
}

// New returns a tester for a w×h pixel viewport.
func New(reg *panel.Registry, cam Viewpoint, w, h int) *Tester {
	return &Tester{reg: reg, cam: cam, w: w, h: h}
}

// SetViewport updates the viewport size in pixels.
func (t *Tester) SetViewport(w, h int) {
	t.w, t.h = w, h
}

// Viewport returns the viewport size in pixels.
func (t *Tester) Viewport() (w, h int) { return t.w, t.h }

// SetTouchRadius sets the radius in pixels of the contact patch sampled by
// Keys. Zero samples only the touch centre.
func (t *Tester) SetTouchRadius(r float64) {
	t.radius = math.Max(r, 0)
}

// Ray builds the world-space ray under the pixel pt (origin top left).
func (t *Tester) Ray(pt mgl64.Vec2) (Ray, bool) {
	if t.w <= 0 || t.h <= 0 {
		return Ray{}, false
	}
	view, proj := t.cam.Matrices(t.w, t.h)
	winY := float64(t.h) - pt[1]
	near, err := mgl64.UnProject(mgl64.Vec3{pt[0], winY, 0}, view, proj, 0, 0, t.w, t.h)
	if err != nil {
		return Ray{}, false
	}
	far, err := mgl64.UnProject(mgl64.Vec3{pt[0], winY, 1}, view, proj, 0, 0, t.w, t.h)
	if err != nil {
		return Ray{}, false
	}
	dir := far.Sub(near)
	if dir.Len() < epsilon {
		return Ray{}, false
	}
	return Ray{Origin: near, Dir: dir.Normalize()}, true
}

// HitTest returns the front-most control under pt, trying knobs, then
// faders, then keys.
func (t *Tester) HitTest(pt mgl64.Vec2) Hit {
	return t.HitTestOrder(pt, DefaultOrder)
}

// HitTestOrder returns the first class in order with a hit under pt, and the
// nearest volume within that class.
func (t *Tester) HitTestOrder(pt mgl64.Vec2, order []panel.Class) Hit {
	ray, ok := t.Ray(pt)
	if !ok {
		return Hit{}
	}
	for _, class := range order {
		if h, ok := t.nearest(ray, class); ok {
			return h
		}
	}
	return Hit{}
}

func (t *Tester) nearest(ray Ray, class panel.Class) (Hit, bool) {
	best, found := Hit{T: math.Inf(1)}, false
	for _, c := range t.reg.AllOfClass(class) {
		d, ok := Intersect(ray, c.Volume)
		if ok && d < best.T {
			best = Hit{Class: class, ID: c.ID, Slot: c.Slot, T: d}
			found = true
		}
	}
	return best, found
}

// Keys returns every key whose hit volume lies under the contact patch at
// pt, ordered by index.
func (t *Tester) Keys(pt mgl64.Vec2) []panel.ID {
	keys := t.reg.AllOfClass(panel.Key)
	hit := make(map[int]bool)
	for _, p := range t.samples(pt) {
		ray, ok := t.Ray(p)
		if !ok {
			continue
		}
		for _, k := range keys {
			if _, ok := Intersect(ray, k.Volume); ok {
				hit[k.ID.Index] = true
			}
		}
	}
	out := make([]panel.ID, 0, len(hit))
	for i := range hit {
		out = append(out, panel.ID{Class: panel.Key, Index: i})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (t *Tester) samples(pt mgl64.Vec2) []mgl64.Vec2 {
	if t.radius == 0 {
		return []mgl64.Vec2{pt}
	}
	pts := make([]mgl64.Vec2, 0, ringSamples+1)
	pts = append(pts, pt)
	for i := 0; i < ringSamples; i++ {
		a := 2 * math.Pi * float64(i) / ringSamples
		pts = append(pts, pt.Add(mgl64.Vec2{math.Cos(a), math.Sin(a)}.Mul(t.radius)))
	}
	return pts
}
