package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// PreferredPatterns are synthesizers picked first when no port is named.
var PreferredPatterns = []string{"Synth", "FluidSynth", "Surge"}

// ExcludedPatterns are virtual/system ports that are never auto-connected.
var ExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

// PickPort chooses an output among names: the first one matching a
// preferred pattern in pattern order, else the only candidate left after
// exclusions.
func PickPort(names, preferred, excluded []string) (string, bool) {
	var candidates []string
	for _, name := range names {
		if !matchesAny(name, excluded) {
			candidates = append(candidates, name)
		}
	}
	for _, pat := range preferred {
		for _, name := range candidates {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return "", false
}

// OpenDriver starts the rtmidi driver shared by the watcher and virtual
// ports.
func OpenDriver() (*rtmididrv.Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return drv, nil
}

// Port is a virtual MIDI output other programs can connect to.
type Port struct {
	out    drivers.Out
	name   string
	logger *slog.Logger
}

// OpenVirtual creates a virtual output called name on drv.
func OpenVirtual(drv *rtmididrv.Driver, name string, logger *slog.Logger) (*Port, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out, err := drv.OpenVirtualOut(name)
	if err != nil {
		return nil, fmt.Errorf("open virtual out %q: %w", name, err)
	}
	logger.Info("midi: virtual port opened", "port", name)
	return &Port{out: out, name: name, logger: logger}, nil
}

// Name returns the port name.
func (p *Port) Name() string { return p.name }

// Sender returns a send func for NewMIDI.
func (p *Port) Sender() (SendFunc, error) {
	return midi.SendTo(p.out)
}

// Close closes the output. The driver stays open.
func (p *Port) Close() {
	p.logger.Info("midi: closing port", "device", p.name)
	_ = p.out.Close()
}

// RescanInterval is how often a Watcher looks at the device list.
const RescanInterval = time.Second

// Watcher keeps one hardware output connected across hot-plugs. It is not
// safe for concurrent use; MIDI.Run drives it.
type Watcher struct {
	Interval time.Duration

	drv       drivers.Driver
	preferred []string
	logger    *slog.Logger

	out      drivers.Out
	name     string
	lastScan time.Time
}

// NewWatcher watches drv for an output matching pattern, or one of
// PreferredPatterns when pattern is empty.
func NewWatcher(drv drivers.Driver, pattern string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	preferred := PreferredPatterns
	if pattern != "" {
		preferred = []string{pattern}
	}
	return &Watcher{Interval: RescanInterval, drv: drv, preferred: preferred, logger: logger}
}

// Tick rescans at most once per Interval. changed reports a connect or a
// disconnect; send is the new output, nil once the device is gone.
func (w *Watcher) Tick(now time.Time) (send SendFunc, changed bool) {
	if !w.lastScan.IsZero() && now.Sub(w.lastScan) < w.Interval {
		return nil, false
	}
	w.lastScan = now

	outs := w.listOutputs()

	if w.out != nil {
		for _, o := range outs {
			if o.String() == w.name {
				return nil, false
			}
		}
		w.logger.Warn("midi: device disappeared", "device", w.name)
		w.closeConn()
		w.lastScan = time.Time{}
		return nil, true
	}

	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.String()
	}
	name, ok := PickPort(names, w.preferred, ExcludedPatterns)
	if !ok {
		return nil, false
	}
	for _, o := range outs {
		if o.String() != name {
			continue
		}
		send, err := midi.SendTo(o)
		if err != nil {
			w.logger.Error("midi: connect failed", "device", name, "err", err)
			return nil, false
		}
		w.out, w.name = o, name
		w.logger.Info("midi: connected", "device", name)
		return send, true
	}
	return nil, false
}

// Device returns the connected output's name.
func (w *Watcher) Device() (string, bool) {
	return w.name, w.out != nil
}

// Close closes the connected output, if any. The driver stays open.
func (w *Watcher) Close() {
	w.closeConn()
}

func (w *Watcher) closeConn() {
	if w.out == nil {
		return
	}
	_ = w.out.Close()
	w.out, w.name = nil, ""
}

func (w *Watcher) listOutputs() []drivers.Out {
	outs, err := w.drv.Outs()
	if err != nil {
		w.logger.Error("midi: list outputs failed", "err", err)
		return nil
	}
	if w.logger.Enabled(context.Background(), slog.LevelDebug) {
		names := make([]string, len(outs))
		for i, o := range outs {
			names[i] = o.String()
		}
		w.logger.Debug("midi: outputs found", "count", len(names), "devices", strings.Join(names, ", "))
	}
	return outs
}

func matchesAny(s string, patterns []string) bool {
	for _, pat := range patterns {
		if containsCI(s, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
