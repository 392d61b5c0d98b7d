// Package engine drives an external synthesizer over MIDI.
//
// The input goroutine hands notes over through a bounded queue and
// parameters through the bus's atomic slots; Run owns the MIDI port and
// flushes both every tick.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/chase3718/synth3d/internal/param"
	"gitlab.com/gomidi/midi/v2"
)

// Tunables.
const (
	TickInterval   = 2 * time.Millisecond
	NoteQueueSize  = 256
	NoteOffReserve = 64 // queue slots only note-offs may use
	Velocity       = 100
	ccAllNotesOff  = 123
)

// CC assigns a controller number to every parameter.
var CC = [param.NumParams]uint8{
	param.Amp:             7,
	param.Attack:          73,
	param.Decay:           75,
	param.Sustain:         79,
	param.Release:         72,
	param.FilterCutoff:    74,
	param.FilterResonance: 71,
}

// Engine is the sound engine as seen by the panel.
type Engine interface {
	NoteOn(note int)
	NoteOff(note int)
	SetParameter(p param.Param, v float64) error
}

// Source yields parameters changed since the last call.
type Source interface {
	Drain(fn func(p param.Param, v float64)) int
}

// SendFunc writes one message to a MIDI output.
type SendFunc = func(midi.Message) error

// Silent discards every message.
var Silent SendFunc = func(midi.Message) error { return nil }

type noteEvent struct {
	on   bool
	note uint8
}

// MIDI implements Engine on a send func such as the one returned by
// midi.SendTo.
type MIDI struct {
	send    atomic.Pointer[SendFunc]
	channel uint8
	params  Source
	notes   chan noteEvent
	dropped atomic.Uint64
	stuck   atomic.Bool // a note-off was lost; silence everything on the next flush
	watcher *Watcher
	logger  *slog.Logger
}

// NewMIDI returns an engine that writes to send on channel (0-15). params
// may be nil.
func NewMIDI(send SendFunc, channel int, params Source, logger *slog.Logger) (*MIDI, error) {
	if channel < 0 || channel > 15 {
		return nil, fmt.Errorf("engine: midi channel %d out of range 0-15", channel)
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &MIDI{
		channel: uint8(channel),
		params:  params,
		notes:   make(chan noteEvent, NoteQueueSize),
		logger:  logger,
	}
	m.SetSender(send)
	return m, nil
}

// SetSender switches the output. nil means Silent.
func (m *MIDI) SetSender(send SendFunc) {
	if send == nil {
		send = Silent
	}
	m.send.Store(&send)
}

func (m *MIDI) sendMsg(msg midi.Message) error {
	return (*m.send.Load())(msg)
}

// Watch lets Run follow the output chosen by w. Call it before Run; w is
// only used from the Run goroutine afterwards.
func (m *MIDI) Watch(w *Watcher) { m.watcher = w }

// NoteOn queues a note-on. It never blocks.
func (m *MIDI) NoteOn(note int) { m.enqueue(true, note) }

// NoteOff queues a note-off. It never blocks.
func (m *MIDI) NoteOff(note int) { m.enqueue(false, note) }

func (m *MIDI) enqueue(on bool, note int) {
	if note < 0 || note > 127 {
		m.logger.Warn("engine: note out of range", "note", note)
		return
	}
	if on && len(m.notes) >= NoteQueueSize-NoteOffReserve {
		m.dropped.Add(1)
		m.logger.Warn("engine: note queue full, dropping note on", "note", note)
		return
	}
	select {
	case m.notes <- noteEvent{on: on, note: uint8(note)}:
	default:
		m.dropped.Add(1)
		m.stuck.Store(true)
		m.logger.Warn("engine: note queue full, all notes off on next flush", "note", note)
	}
}

// Dropped returns the number of notes lost to a full queue.
func (m *MIDI) Dropped() uint64 { return m.dropped.Load() }

// SetParameter sends p as a control change right away.
func (m *MIDI) SetParameter(p param.Param, v float64) error {
	if !p.Valid() {
		return fmt.Errorf("engine: unknown parameter %d", p)
	}
	return m.sendMsg(midi.ControlChange(m.channel, CC[p], CCValue(v)))
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName renders a MIDI note in scientific pitch notation, e.g. 60 → "C4".
func NoteName(note int) string {
	if note < 0 {
		return fmt.Sprintf("?%d", note)
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}

// CCValue scales a normalized value to 0..127.
func CCValue(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 127
	}
	return uint8(math.Round(127 * v))
}

// Flush sends every queued note and every changed parameter. Notes go
// first so a note and a parameter change from the same gesture arrive
// together.
func (m *MIDI) Flush() error {
	var errs []error
	for done := false; !done; {
		select {
		case ev := <-m.notes:
			msg := midi.NoteOff(m.channel, ev.note)
			if ev.on {
				msg = midi.NoteOn(m.channel, ev.note, Velocity)
			}
			if err := m.sendMsg(msg); err != nil {
				errs = append(errs, fmt.Errorf("note %s: %w", NoteName(int(ev.note)), err))
				continue
			}
			m.logger.Debug("engine: note", "on", ev.on, "note", ev.note, "name", NoteName(int(ev.note)))
		default:
			done = true
		}
	}
	if m.stuck.Swap(false) {
		if err := m.Panic(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.params != nil {
		m.params.Drain(func(p param.Param, v float64) {
			if err := m.SetParameter(p, v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p, err))
			}
		})
	}
	return errors.Join(errs...)
}

// Panic silences every sounding note on the channel.
func (m *MIDI) Panic() error {
	m.logger.Info("engine: all notes off")
	return m.sendMsg(midi.ControlChange(m.channel, ccAllNotesOff, 0))
}

// Run flushes every TickInterval until ctx is done, then sends all notes
// off. Send errors are logged and do not stop the loop.
func (m *MIDI) Run(ctx context.Context) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := m.Flush(); err != nil {
				m.logger.Error("engine: flush failed", "err", err)
			}
			if err := m.Panic(); err != nil {
				m.logger.Error("engine: all notes off failed", "err", err)
			}
			return ctx.Err()
		case now := <-ticker.C:
			m.rescan(now)
			if err := m.Flush(); err != nil {
				m.logger.Error("engine: flush failed", "err", err)
			}
		}
	}
}

// rescan follows the watcher's device. A newly connected device is sent
// every parameter.
func (m *MIDI) rescan(now time.Time) {
	if m.watcher == nil {
		return
	}
	send, changed := m.watcher.Tick(now)
	if !changed {
		return
	}
	m.SetSender(send)
	if send == nil {
		return
	}
	if r, ok := m.params.(interface{ Invalidate() }); ok {
		r.Invalidate()
	}
}
