// Package bus fans normalized parameter values out from the input goroutine.
//
// Publish runs on the producer. Listeners are called synchronously in
// subscription order. Consumers on other goroutines (the sound engine) never
// take a lock: they read the latest value of each parameter from an atomic
// slot and learn what changed from an atomic dirty mask.
package bus

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/chase3718/synth3d/internal/mapping"
	"github.com/chase3718/synth3d/internal/param"
)

// Listener receives a parameter's new normalized value.
type Listener func(p param.Param, v float64)

type subscription struct {
	id uint64
	p  param.Param // -1 for every parameter
	fn Listener
}

// Bus is the parameter fan-out. The zero value is not usable; use New.
type Bus struct {
	slots [param.NumParams]atomic.Uint64 // math.Float64bits of the latest value
	dirty atomic.Uint32

	mu     sync.Mutex
	subs   []subscription
	nextID uint64

	logger *slog.Logger
}

// New returns a bus holding initial.
func New(initial param.State, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{logger: logger}
	for _, p := range param.All() {
		b.slots[p].Store(math.Float64bits(mapping.Clamp01(initial.Get(p))))
	}
	b.Invalidate()
	return b
}

// Invalidate marks every parameter dirty so the next Drain reports all of
// them.
func (b *Bus) Invalidate() {
	b.dirty.Store(1<<uint(param.NumParams) - 1)
}

// Latest returns the current value of p. Safe from any goroutine.
func (b *Bus) Latest(p param.Param) float64 {
	if !p.Valid() {
		return 0
	}
	return math.Float64frombits(b.slots[p].Load())
}

// State returns a snapshot of every parameter.
func (b *Bus) State() param.State {
	var s param.State
	for _, p := range param.All() {
		s.Set(p, b.Latest(p))
	}
	return s
}

// Publish clamps v to [0,1] and delivers it unless it equals the current
// value. It reports whether the value changed.
func (b *Bus) Publish(p param.Param, v float64) bool {
	if !p.Valid() {
		b.logger.Warn("bus: publish to unknown parameter", "param", p)
		return false
	}
	v = mapping.Clamp01(v)
	bits := math.Float64bits(v)
	if b.slots[p].Swap(bits) == bits {
		return false
	}
	b.dirty.Or(1 << uint(p))
	b.logger.Debug("bus: publish", "param", p, "value", v)

	for _, s := range b.listeners() {
		if s.p < 0 || s.p == p {
			s.fn(p, v)
		}
	}
	return true
}

// ApplyState publishes every field of s that differs from the current
// values, in parameter order.
func (b *Bus) ApplyState(s param.State) []param.Param {
	var changed []param.Param
	for _, p := range b.State().Changed(s) {
		if b.Publish(p, s.Get(p)) {
			changed = append(changed, p)
		}
	}
	return changed
}

// Subscribe registers fn for p and calls it once with the current value.
// The returned func removes the subscription.
func (b *Bus) Subscribe(p param.Param, fn Listener) (cancel func()) {
	cancel = b.add(p, fn)
	fn(p, b.Latest(p))
	return cancel
}

// SubscribeAll registers fn for every parameter and calls it once per
// parameter with the current values.
func (b *Bus) SubscribeAll(fn Listener) (cancel func()) {
	cancel = b.add(-1, fn)
	for _, p := range param.All() {
		fn(p, b.Latest(p))
	}
	return cancel
}

func (b *Bus) add(p param.Param, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, p: p, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// listeners copies the subscription list so callbacks run without the lock.
func (b *Bus) listeners() []subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]subscription(nil), b.subs...)
}

// Drain clears the dirty mask and calls fn with the latest value of every
// parameter that changed since the previous Drain. It does not block.
func (b *Bus) Drain(fn func(p param.Param, v float64)) int {
	mask := b.dirty.Swap(0)
	n := 0
	for p := param.Param(0); p < param.NumParams; p++ {
		if mask&(1<<uint(p)) != 0 {
			fn(p, b.Latest(p))
			n++
		}
	}
	return n
}
