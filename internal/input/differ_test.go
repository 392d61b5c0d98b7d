package input

import (
	"fmt"
	"testing"

	"github.com/chase3718/synth3d/internal/touch"
	"github.com/go-gl/mathgl/mgl64"
)

func v(x, y float64) mgl64.Vec2 { return mgl64.Vec2{x, y} }

func trace(evs []Event) string {
	s := ""
	for _, e := range evs {
		s += fmt.Sprintf("%s:%d ", e.Phase, e.ID)
	}
	return s
}

func TestDifferLifecycle(t *testing.T) {
	var d Differ
	steps := []struct {
		cur   Snapshot
		fresh []touch.ID
		want  string
	}{
		{Snapshot{1: v(0, 0)}, nil, "down:1 "},
		{Snapshot{1: v(0, 0)}, nil, ""},
		{Snapshot{1: v(0, 5), 2: v(9, 9)}, nil, "move:1 down:2 "},
		{Snapshot{2: v(9, 9)}, nil, "up:1 "},
		{Snapshot{2: v(3, 3)}, []touch.ID{2}, "up:2 down:2 "},
		{Snapshot{}, nil, "up:2 "},
	}
	for i, st := range steps {
		if got := trace(d.Next(st.cur, st.fresh)); got != st.want {
			t.Fatalf("step %d: events %q, want %q", i, got, st.want)
		}
	}
}

func TestDifferCancelAll(t *testing.T) {
	var d Differ
	d.Next(Snapshot{3: v(1, 1), 1: v(2, 2)}, nil)
	if got := trace(d.CancelAll()); got != "cancel:1 cancel:3 " {
		t.Fatalf("CancelAll = %q", got)
	}
	if d.Live() != 0 {
		t.Fatalf("live = %d", d.Live())
	}
	// pointers still down after focus returns start fresh sessions
	if got := trace(d.Next(Snapshot{1: v(2, 2)}, nil)); got != "down:1 " {
		t.Fatalf("after cancel = %q", got)
	}
}

type handler struct{ calls []string }

func (h *handler) Down(id touch.ID, pt mgl64.Vec2) {
	h.calls = append(h.calls, fmt.Sprint("down", id, pt))
}

func (h *handler) Move(id touch.ID, pt mgl64.Vec2) {
	h.calls = append(h.calls, fmt.Sprint("move", id, pt))
}

func (h *handler) Up(id touch.ID) {
	h.calls = append(h.calls, fmt.Sprint("up", id))
}

func (h *handler) Cancel(id touch.ID) {
	h.calls = append(h.calls, fmt.Sprint("cancel", id))
}

func TestDispatch(t *testing.T) {
	h := &handler{}
	Dispatch(h, []Event{{Down, 1, v(1, 2)}, {Move, 1, v(1, 3)}, {Up, 1, v(1, 3)}, {Cancel, 2, v(0, 0)}})
	if len(h.calls) != 4 || h.calls[0] != fmt.Sprint("down", touch.ID(1), v(1, 2)) || h.calls[3] != fmt.Sprint("cancel", touch.ID(2)) {
		t.Fatalf("calls = %v", h.calls)
	}
}
