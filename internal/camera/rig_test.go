package camera

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRestPoseLooksAtOrigin(t *testing.T) {
	p := RestPose()
	eye := p.Eye()
	want := RestDistance * math.Sqrt2 / 2
	if !eye.ApproxEqualThreshold(mgl64.Vec3{0, want, want}, 1e-9) {
		t.Fatalf("eye = %v", eye)
	}
	// the origin projects to the viewport centre
	win := mgl64.Project(mgl64.Vec3{}, p.View(), Projection(800, 600), 0, 0, 800, 600)
	if math.Abs(win[0]-400) > 1e-6 || math.Abs(win[1]-300) > 1e-6 {
		t.Fatalf("origin projects to %v", win)
	}
}

func TestOrbitClampsPitch(t *testing.T) {
	r := NewRig(nil)
	r.Orbit(0, 1000)
	if got := r.Pose().Orbit[0]; got != MinPitch {
		t.Fatalf("pitch = %g, want %g", got, MinPitch)
	}
	r.Orbit(0, -1000)
	if got := r.Pose().Orbit[0]; got != MaxPitch {
		t.Fatalf("pitch = %g, want %g", got, MaxPitch)
	}
	r.Orbit(10, 0)
	if got := r.Pose().Orbit[1]; !mgl64.FloatEqual(got, -0.1) {
		t.Fatalf("yaw = %g", got)
	}
}

func TestReturnToRest(t *testing.T) {
	r := NewRig(nil)
	clock := time.Unix(0, 0)
	r.now = func() time.Time { return clock }

	r.Orbit(50, 20)
	r.ReturnToRest()
	if r.Resting() {
		t.Fatalf("rig should be animating")
	}

	r.ApplyRotationRate(mgl64.Vec3{0, 10, 10})
	if p := r.Pose().Parallax; p != (mgl64.Vec3{}) {
		t.Fatalf("parallax applied during return: %v", p)
	}

	clock = clock.Add(RestDuration / 2)
	r.Advance()
	mid := r.Pose().Orbit
	if mid == RestEuler {
		t.Fatalf("pose reached rest halfway through")
	}

	clock = clock.Add(RestDuration)
	r.Advance()
	if !r.Resting() {
		t.Fatalf("rig did not settle")
	}
	if p := r.Pose(); p != RestPose() {
		t.Fatalf("pose = %+v, want rest", p)
	}

	r.ApplyRotationRate(mgl64.Vec3{0, 10, 0})
	if got := r.Pose().Parallax[0]; !mgl64.FloatEqual(got, 10*ParallaxRate) {
		t.Fatalf("parallax = %g", got)
	}
}

func TestParallaxIsBounded(t *testing.T) {
	r := NewRig(nil)
	for i := 0; i < 1000; i++ {
		r.ApplyRotationRate(mgl64.Vec3{0, 100, -100})
	}
	p := r.Pose().Parallax
	if p[0] != MaxParallax || p[1] != -MaxParallax {
		t.Fatalf("parallax = %v", p)
	}
}

func TestConcurrentWriters(t *testing.T) {
	r := NewRig(nil)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.Orbit(1, 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.ApplyRotationRate(mgl64.Vec3{0, 1, 1})
		}
	}()
	for i := 0; i < 500; i++ {
		_ = r.Pose().View()
	}
	wg.Wait()
	if got := r.Pose().Orbit[1]; !mgl64.FloatEqualThreshold(got, -5, 1e-9) {
		t.Fatalf("yaw = %g, lost updates", got)
	}
}
