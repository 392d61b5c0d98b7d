package hittest

import (
	"math"

	"github.com/chase3718/synth3d/internal/panel"
	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-12

// Ray is a half line in world space.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Intersect returns the smallest t >= 0 at which r enters v. A ray starting
// inside the volume hits at t = 0.
func Intersect(r Ray, v panel.Volume) (float64, bool) {
	inv := v.Transform.Inv()
	o := inv.Mul4x1(r.Origin.Vec4(1)).Vec3()
	d := inv.Mul4x1(r.Dir.Vec4(0)).Vec3()
	switch v.Shape {
	case panel.Cylinder:
		return cylinder(o, d)
	default:
		return box(o, d)
	}
}

// box is the slab test against the unit cube centred on the origin.
func box(o, d mgl64.Vec3) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < epsilon {
			if o[i] < -0.5 || o[i] > 0.5 {
				return 0, false
			}
			continue
		}
		t1 := (-0.5 - o[i]) / d[i]
		t2 := (0.5 - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	return math.Max(tmin, 0), true
}

// cylinder tests the unit cylinder: radius 0.5, height 1, axis y.
func cylinder(o, d mgl64.Vec3) (float64, bool) {
	const r2 = 0.25
	inside := func(p mgl64.Vec3) bool {
		return p[0]*p[0]+p[2]*p[2] <= r2+1e-9 && math.Abs(p[1]) <= 0.5+1e-9
	}
	if inside(o) {
		return 0, true
	}

	best, found := math.Inf(1), false
	consider := func(t float64, ok bool) {
		if ok && t >= 0 && t < best {
			best, found = t, true
		}
	}

	a := d[0]*d[0] + d[2]*d[2]
	if a > epsilon {
		b := 2 * (o[0]*d[0] + o[2]*d[2])
		c := o[0]*o[0] + o[2]*o[2] - r2
		disc := b*b - 4*a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
				y := o[1] + t*d[1]
				consider(t, math.Abs(y) <= 0.5)
			}
		}
	}
	if math.Abs(d[1]) > epsilon {
		for _, y := range [2]float64{-0.5, 0.5} {
			t := (y - o[1]) / d[1]
			x, z := o[0]+t*d[0], o[2]+t*d[2]
			consider(t, x*x+z*z <= r2)
		}
	}
	return best, found
}
