// Package camera owns the viewpoint the panel is seen and hit-tested from.
//
// Two producers move it: the background touch (orbit) and the motion sensor
// (parallax). Writers are serialized by Rig; readers load an immutable Pose
// and never observe a half-written update.
package camera

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Tunables.
const (
	OrbitRate     = 0.01 // radians per pixel
	MinPitch      = -math.Pi / 2
	MaxPitch      = 0.0
	RestDistance  = 1.1
	RestDuration  = 500 * time.Millisecond
	ParallaxRate  = 0.00035
	FocalLengthMM = 40.0
	SensorMM      = 24.0
	ZNear         = 0.01
	ZFar          = 10.0
)

var (
	RestEuler   = mgl64.Vec3{-math.Pi / 4, 0, 0}
	MaxParallax = mgl64.DegToRad(3)
)

// Pose is one consistent camera state.
type Pose struct {
	Orbit    mgl64.Vec3 // pitch, yaw, roll driven by the background touch
	Parallax mgl64.Vec3 // small offset driven by the motion sensor
	Distance float64
}

// RestPose is the pose the camera settles into after a background touch.
func RestPose() Pose {
	return Pose{Orbit: RestEuler, Distance: RestDistance}
}

func rotation(e mgl64.Vec3) mgl64.Mat4 {
	return mgl64.HomogRotate3DX(e[0]).
		Mul4(mgl64.HomogRotate3DY(e[1])).
		Mul4(mgl64.HomogRotate3DZ(e[2]))
}

// World is the camera-to-world transform: the camera sits Distance along the
// local z axis of the orbit, looking at the origin.
func (p Pose) World() mgl64.Mat4 {
	return rotation(p.Orbit).
		Mul4(rotation(p.Parallax)).
		Mul4(mgl64.Translate3D(0, 0, p.Distance))
}

// View is the world-to-camera transform.
func (p Pose) View() mgl64.Mat4 {
	return p.World().Inv()
}

// Eye returns the camera position in world space.
func (p Pose) Eye() mgl64.Vec3 {
	return p.World().Col(3).Vec3()
}

// FovY is the vertical field of view of the lens in radians.
func FovY() float64 {
	return 2 * math.Atan(SensorMM/2/FocalLengthMM)
}

// Projection returns the perspective projection for a viewport of w×h.
func Projection(w, h int) mgl64.Mat4 {
	aspect := 1.0
	if w > 0 && h > 0 {
		aspect = float64(w) / float64(h)
	}
	return mgl64.Perspective(FovY(), aspect, ZNear, ZFar)
}

type returnAnim struct {
	from  Pose
	start time.Time
}

// Rig is the shared camera. The zero value is not usable; use NewRig.
type Rig struct {
	mu       sync.Mutex
	pose     atomic.Pointer[Pose]
	ret      *returnAnim
	parallax bool // sensor updates are applied

	now    func() time.Time
	logger *slog.Logger

	RestDuration time.Duration
}

// NewRig returns a rig resting at RestPose with parallax enabled.
func NewRig(logger *slog.Logger) *Rig {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Rig{
		parallax:     true,
		now:          time.Now,
		logger:       logger,
		RestDuration: RestDuration,
	}
	p := RestPose()
	r.pose.Store(&p)
	return r
}

// Pose returns the current pose. Safe for concurrent use.
func (r *Rig) Pose() Pose {
	return *r.pose.Load()
}

// Matrices returns the view and projection matrices for a w×h viewport from
// a single pose load.
func (r *Rig) Matrices(w, h int) (view, proj mgl64.Mat4) {
	return r.Pose().View(), Projection(w, h)
}

// Orbit turns the camera by a pointer delta in pixels. It abandons any
// return to rest in progress.
func (r *Rig) Orbit(dx, dy float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ret != nil {
		r.ret = nil
		r.parallax = true
	}
	p := r.Pose()
	p.Orbit[0] = mgl64.Clamp(p.Orbit[0]-OrbitRate*dy, MinPitch, MaxPitch)
	p.Orbit[1] -= OrbitRate * dx
	r.pose.Store(&p)
}

// ReturnToRest starts the animation back to RestPose. Parallax is disabled
// until the animation settles.
func (r *Rig) ReturnToRest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parallax = false
	if r.RestDuration <= 0 {
		r.settle()
		return
	}
	r.ret = &returnAnim{from: r.Pose(), start: r.now()}
	r.logger.Debug("camera: returning to rest")
}

// Advance moves a return animation forward to the current time. Call it once
// per frame.
func (r *Rig) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ret == nil {
		return
	}
	f := float64(r.now().Sub(r.ret.start)) / float64(r.RestDuration)
	if f >= 1 {
		r.settle()
		return
	}
	f = easeInOut(f)
	rest := RestPose()
	p := Pose{
		Orbit:    lerp(r.ret.from.Orbit, rest.Orbit, f),
		Parallax: lerp(r.ret.from.Parallax, rest.Parallax, f),
		Distance: r.ret.from.Distance + (rest.Distance-r.ret.from.Distance)*f,
	}
	r.pose.Store(&p)
}

// settle must be called with mu held.
func (r *Rig) settle() {
	p := RestPose()
	r.pose.Store(&p)
	r.ret = nil
	r.parallax = true
	r.logger.Debug("camera: at rest")
}

// Resting reports whether no return animation is in progress.
func (r *Rig) Resting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ret == nil
}

// ApplyRotationRate feeds one motion sensor sample (radians per second about
// x, y, z). It may be called from any goroutine.
func (r *Rig) ApplyRotationRate(rate mgl64.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.parallax {
		return
	}
	p := r.Pose()
	p.Parallax[0] = mgl64.Clamp(p.Parallax[0]+ParallaxRate*rate[1], -MaxParallax, MaxParallax)
	p.Parallax[1] = mgl64.Clamp(p.Parallax[1]+ParallaxRate*rate[2], -MaxParallax, MaxParallax)
	r.pose.Store(&p)
}

func lerp(a, b mgl64.Vec3, f float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}

func easeInOut(f float64) float64 {
	return f * f * (3 - 2*f)
}
