// Package touch tracks every live touch from touch-down to touch-up and
// turns its motion into notes, parameter values and camera moves.
//
// A Tracker is owned by the input goroutine: Down, Move, Up, Cancel and Sync
// must all be called from it. None of them block.
package touch

import (
	"log/slog"
	"slices"
	"sort"

	"github.com/chase3718/synth3d/internal/hittest"
	"github.com/chase3718/synth3d/internal/mapping"
	"github.com/chase3718/synth3d/internal/panel"
	"github.com/chase3718/synth3d/internal/param"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultBaseNote puts keys 1..25 on MIDI notes 51..75.
const DefaultBaseNote = 50

// Visual press angles of a held key, in radians.
var (
	PressAngleWhite = mgl64.DegToRad(5)
	PressAngleBlack = mgl64.DegToRad(7)
)

// ID identifies one physical touch for its whole lifetime.
type ID uint64

// Kind is what a session is bound to.
type Kind int

const (
	KindControl    Kind = iota + 1 // one fader or knob
	KindKeys                       // a set of keys, possibly empty
	KindBackground                 // the camera
)

func (k Kind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindKeys:
		return "keys"
	case KindBackground:
		return "background"
	}
	return "unknown"
}

// Locator answers hit tests for a pointer location.
type Locator interface {
	HitTest(pt mgl64.Vec2) hittest.Hit
	Keys(pt mgl64.Vec2) []panel.ID
}

// NoteSink plays notes.
type NoteSink interface {
	NoteOn(note int)
	NoteOff(note int)
}

// Publisher receives normalized parameter values.
type Publisher interface {
	Publish(p param.Param, v float64) bool
}

// Camera is moved by the background touch.
type Camera interface {
	Orbit(dx, dy float64)
	ReturnToRest()
}

// VisualSink renders a control's raw value: a knob angle, a fader offset or
// a key press angle.
type VisualSink interface {
	ApplyVisualState(id panel.ID, raw float64)
}

// Config wires a Tracker to its collaborators. Visual, OnKeyDown and Logger
// are optional.
type Config struct {
	Registry  *panel.Registry
	Locator   Locator
	Notes     NoteSink
	Params    Publisher
	Camera    Camera
	Visual    VisualSink
	OnKeyDown func() // a touch-down pressed at least one key
	BaseNote  int
	Gearing   mapping.Gearing
	Logger    *slog.Logger
}

type session struct {
	kind Kind
	slot int        // KindControl
	keys []panel.ID // KindKeys, ordered by index
	last mgl64.Vec2
}

// Tracker is the touch session table.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	sessions   map[ID]*session
	background ID
	hasBG      bool
	held       map[int]int // key index → number of sessions holding it
	raw        []float64   // per registry slot
}

// New returns an empty tracker. Fader and knob raw values start at their
// range minimum until the first Sync.
func New(cfg Config) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[ID]*session),
		held:     make(map[int]int),
		raw:      make([]float64, cfg.Registry.Len()),
	}
	for slot := range t.raw {
		t.raw[slot] = cfg.Registry.Control(slot).Range.Min
	}
	return t
}

func (t *Tracker) axis(c panel.Control) mapping.Axis {
	g := t.cfg.Gearing.Fader
	if c.ID.Class == panel.Knob {
		g = t.cfg.Gearing.Knob
	}
	return mapping.Axis{Min: c.Range.Min, Max: c.Range.Max, Gearing: g}
}

// Down opens a session for a new touch at pt.
func (t *Tracker) Down(id ID, pt mgl64.Vec2) {
	if _, ok := t.sessions[id]; ok {
		t.logger.Warn("touch: down for live touch, closing previous session", "touch", id)
		t.end(id)
	}

	s := &session{last: pt}
	hit := t.cfg.Locator.HitTest(pt)
	switch hit.Class {
	case panel.Knob, panel.Fader:
		s.kind = KindControl
		s.slot = hit.Slot
	case panel.Key:
		s.kind = KindKeys
		s.keys = t.cfg.Locator.Keys(pt)
		if !slices.Contains(s.keys, hit.ID) {
			s.keys = append(s.keys, hit.ID)
			sortKeys(s.keys)
		}
		for _, k := range s.keys {
			t.press(k)
		}
		if len(s.keys) > 0 && t.cfg.OnKeyDown != nil {
			t.cfg.OnKeyDown()
		}
	default:
		if !t.hasBG {
			s.kind = KindBackground
			t.background, t.hasBG = id, true
		} else {
			// Camera is taken; the touch can still slide onto keys.
			s.kind = KindKeys
		}
	}
	t.sessions[id] = s
	t.logger.Debug("touch: down", "touch", id, "kind", s.kind, "hit", hit.ID)
}

// Move advances the session of id to pt.
func (t *Tracker) Move(id ID, pt mgl64.Vec2) {
	s, ok := t.sessions[id]
	if !ok {
		t.logger.Warn("touch: move for unknown touch ignored", "touch", id)
		return
	}
	d := pt.Sub(s.last)
	s.last = pt

	switch s.kind {
	case KindControl:
		t.drag(s.slot, d.Y())
	case KindKeys:
		next := t.cfg.Locator.Keys(pt)
		for _, k := range next {
			if !slices.Contains(s.keys, k) {
				t.press(k)
			}
		}
		for _, k := range s.keys {
			if !slices.Contains(next, k) {
				t.release(k)
			}
		}
		s.keys = next
	case KindBackground:
		t.cfg.Camera.Orbit(d.X(), d.Y())
	}
}

// Up closes the session of id.
func (t *Tracker) Up(id ID) {
	if _, ok := t.sessions[id]; !ok {
		t.logger.Warn("touch: up for unknown touch ignored", "touch", id)
		return
	}
	t.end(id)
}

// Cancel closes the session of id exactly as Up does.
func (t *Tracker) Cancel(id ID) {
	if _, ok := t.sessions[id]; !ok {
		t.logger.Warn("touch: cancel for unknown touch ignored", "touch", id)
		return
	}
	t.end(id)
}

// CancelAll closes every session, releasing all held keys.
func (t *Tracker) CancelAll() {
	if len(t.sessions) == 0 {
		return
	}
	ids := make([]ID, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	t.logger.Info("touch: cancelling all sessions", "count", len(ids))
	for _, id := range ids {
		t.end(id)
	}
}

func (t *Tracker) end(id ID) {
	s := t.sessions[id]
	delete(t.sessions, id)
	switch s.kind {
	case KindKeys:
		for _, k := range s.keys {
			t.release(k)
		}
	case KindBackground:
		t.hasBG = false
		t.cfg.Camera.ReturnToRest()
	}
	t.logger.Debug("touch: up", "touch", id, "kind", s.kind)
}

func (t *Tracker) drag(slot int, dy float64) {
	c := t.cfg.Registry.Control(slot)
	a := t.axis(c)
	raw := a.Step(t.raw[slot], dy)
	if raw == t.raw[slot] {
		return
	}
	t.raw[slot] = raw
	if t.cfg.Visual != nil {
		t.cfg.Visual.ApplyVisualState(c.ID, raw)
	}
	t.cfg.Params.Publish(c.Param, a.Normalize(raw))
}

func (t *Tracker) press(k panel.ID) {
	c, ok := t.cfg.Registry.Lookup(k)
	if !ok {
		t.logger.Warn("touch: ignoring unknown key", "key", k)
		return
	}
	t.held[k.Index]++
	if t.held[k.Index] > 1 {
		return
	}
	t.cfg.Notes.NoteOn(t.cfg.BaseNote + k.Index)
	if t.cfg.Visual != nil {
		angle := PressAngleWhite
		if c.Black {
			angle = PressAngleBlack
		}
		t.cfg.Visual.ApplyVisualState(k, angle)
	}
}

func (t *Tracker) release(k panel.ID) {
	n, ok := t.held[k.Index]
	if !ok {
		return
	}
	if n > 1 {
		t.held[k.Index] = n - 1
		return
	}
	delete(t.held, k.Index)
	t.cfg.Notes.NoteOff(t.cfg.BaseNote + k.Index)
	if t.cfg.Visual != nil {
		t.cfg.Visual.ApplyVisualState(k, 0)
	}
}

// Sync moves the control bound to p to the normalized value v. Subscribe it
// to the parameter bus so values produced elsewhere (sliders, presets) show
// up on the panel.
func (t *Tracker) Sync(p param.Param, v float64) {
	c, ok := t.cfg.Registry.ByParam(p)
	if !ok {
		return
	}
	a := t.axis(c)
	if a.Normalize(t.raw[c.Slot]) == v {
		return
	}
	t.raw[c.Slot] = a.Raw(v)
	if t.cfg.Visual != nil {
		t.cfg.Visual.ApplyVisualState(c.ID, t.raw[c.Slot])
	}
}

// Raw returns the current raw value of a fader or knob.
func (t *Tracker) Raw(id panel.ID) float64 {
	slot, ok := t.cfg.Registry.Slot(id)
	if !ok {
		return 0
	}
	return t.raw[slot]
}

// Len returns the number of live sessions.
func (t *Tracker) Len() int { return len(t.sessions) }

// Session reports the kind of the live session of id.
func (t *Tracker) Session(id ID) (Kind, bool) {
	s, ok := t.sessions[id]
	if !ok {
		return 0, false
	}
	return s.kind, true
}

// Background returns the touch that currently owns the camera.
func (t *Tracker) Background() (ID, bool) {
	return t.background, t.hasBG
}

// Held returns the indexes of the sounding keys in ascending order.
func (t *Tracker) Held() []int {
	out := make([]int, 0, len(t.held))
	for k := range t.held {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortKeys(keys []panel.ID) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Index < keys[j].Index })
}
