// Package input turns polled pointer state into touch lifecycle events.
package input

import (
	"slices"

	"github.com/chase3718/synth3d/internal/touch"
	"github.com/go-gl/mathgl/mgl64"
)

// Phase is the kind of a pointer event.
type Phase int

const (
	Down Phase = iota
	Move
	Up
	Cancel
)

func (p Phase) String() string {
	switch p {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	case Cancel:
		return "cancel"
	}
	return "unknown"
}

// Event is one pointer lifecycle step.
type Event struct {
	Phase Phase
	ID    touch.ID
	Pt    mgl64.Vec2
}

// Snapshot is the set of pointers pressed in one frame.
type Snapshot map[touch.ID]mgl64.Vec2

// Handler consumes pointer events. *touch.Tracker implements it.
type Handler interface {
	Down(id touch.ID, pt mgl64.Vec2)
	Move(id touch.ID, pt mgl64.Vec2)
	Up(id touch.ID)
	Cancel(id touch.ID)
}

// Differ compares consecutive snapshots. Pointers that disappear are
// released; pointers that appear are pressed.
type Differ struct {
	prev Snapshot
}

// Next returns the events leading from the previous snapshot to cur, ups
// first, then moves, then downs, each in id order. fresh lists ids pressed
// this frame; one already live in the previous snapshot was released and
// pressed again in between.
func (d *Differ) Next(cur Snapshot, fresh []touch.ID) []Event {
	var evs []Event
	for _, id := range sortedIDs(d.prev) {
		if _, ok := cur[id]; !ok || slices.Contains(fresh, id) {
			evs = append(evs, Event{Phase: Up, ID: id, Pt: d.prev[id]})
		}
	}
	var downs []Event
	for _, id := range sortedIDs(cur) {
		pt := cur[id]
		old, live := d.prev[id]
		switch {
		case !live || slices.Contains(fresh, id):
			downs = append(downs, Event{Phase: Down, ID: id, Pt: pt})
		case old != pt:
			evs = append(evs, Event{Phase: Move, ID: id, Pt: pt})
		}
	}
	d.prev = make(Snapshot, len(cur))
	for id, pt := range cur {
		d.prev[id] = pt
	}
	return append(evs, downs...)
}

// CancelAll returns a cancel for every live pointer and forgets them.
func (d *Differ) CancelAll() []Event {
	var evs []Event
	for _, id := range sortedIDs(d.prev) {
		evs = append(evs, Event{Phase: Cancel, ID: id, Pt: d.prev[id]})
	}
	d.prev = nil
	return evs
}

// Live returns the number of pointers in the previous snapshot.
func (d *Differ) Live() int { return len(d.prev) }

// Dispatch delivers evs to h in order.
func Dispatch(h Handler, evs []Event) {
	for _, e := range evs {
		switch e.Phase {
		case Down:
			h.Down(e.ID, e.Pt)
		case Move:
			h.Move(e.ID, e.Pt)
		case Up:
			h.Up(e.ID)
		case Cancel:
			h.Cancel(e.ID)
		}
	}
}

func sortedIDs(s Snapshot) []touch.ID {
	ids := make([]touch.ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
