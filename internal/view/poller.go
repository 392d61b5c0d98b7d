package view

import (
	"log/slog"

	"github.com/chase3718/synth3d/internal/input"
	"github.com/chase3718/synth3d/internal/touch"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// MouseID is the touch id given to the left mouse button.
const MouseID = ^touch.ID(0)

// Poller reads ebiten touch and mouse state once per Update.
type Poller struct {
	differ   input.Differ
	touchIDs []ebiten.TouchID
	fresh    []ebiten.TouchID
	focused  bool
	logger   *slog.Logger
}

// NewPoller returns a poller with no live pointers.
func NewPoller(logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{focused: true, logger: logger}
}

// Update polls the pointers and feeds the resulting events to h. Losing
// window focus cancels every live pointer.
func (p *Poller) Update(h input.Handler) {
	if !ebiten.IsFocused() {
		if p.focused && p.differ.Live() > 0 {
			p.logger.Info("input: focus lost, cancelling touches", "count", p.differ.Live())
		}
		p.focused = false
		input.Dispatch(h, p.differ.CancelAll())
		return
	}
	p.focused = true

	cur := make(input.Snapshot)
	p.touchIDs = ebiten.AppendTouchIDs(p.touchIDs[:0])
	for _, tid := range p.touchIDs {
		x, y := ebiten.TouchPosition(tid)
		cur[touch.ID(tid)] = mgl64.Vec2{float64(x), float64(y)}
	}
	p.fresh = inpututil.AppendJustPressedTouchIDs(p.fresh[:0])
	fresh := make([]touch.ID, 0, len(p.fresh)+1)
	for _, tid := range p.fresh {
		fresh = append(fresh, touch.ID(tid))
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		cur[MouseID] = mgl64.Vec2{float64(x), float64(y)}
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			fresh = append(fresh, MouseID)
		}
	}

	evs := p.differ.Next(cur, fresh)
	for _, e := range evs {
		if e.Phase != input.Move {
			p.logger.Debug("input: pointer", "phase", e.Phase, "touch", e.ID, "x", e.Pt.X(), "y", e.Pt.Y())
		}
	}
	input.Dispatch(h, evs)
}
