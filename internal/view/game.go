// Package view is the on-screen instrument: an ebiten game that polls
// pointers into the touch tracker and draws the panel as seen from the
// camera.
package view

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"github.com/chase3718/synth3d/internal/bus"
	"github.com/chase3718/synth3d/internal/camera"
	"github.com/chase3718/synth3d/internal/display"
	"github.com/chase3718/synth3d/internal/hittest"
	"github.com/chase3718/synth3d/internal/panel"
	"github.com/chase3718/synth3d/internal/param"
	"github.com/chase3718/synth3d/internal/touch"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// SliderStep is the keyboard slider increment.
const SliderStep = 0.01

var (
	colBackground = color.RGBA{0x1c, 0x1e, 0x22, 0xff}
	colWhiteKey   = color.RGBA{0xee, 0xee, 0xe8, 0xff}
	colBlackKey   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colPressed    = color.RGBA{0xf0, 0x90, 0x30, 0xff}
	colTrack      = color.RGBA{0x55, 0x5a, 0x60, 0xff}
	colCap        = color.RGBA{0xd0, 0xd4, 0xd8, 0xff}
	colLCD        = color.RGBA{0x30, 0x60, 0x40, 0xff}
)

// Deps are the collaborators the game drives.
type Deps struct {
	Registry *panel.Registry
	Tracker  *touch.Tracker
	Tester   *hittest.Tester
	Camera   *camera.Rig
	Bus      *bus.Bus
	Display  *display.Panel
	Poller   *Poller
	OnSave   func(param.State) // optional, bound to the S key
	Done     <-chan struct{}   // optional, closing it ends the game
	Logger   *slog.Logger
}

// Game implements ebiten.Game and touch.VisualSink.
type Game struct {
	Deps
	visual   map[panel.ID]float64
	selected param.Param
	w, h     int
}

func New(d Deps) *Game {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Game{Deps: d, visual: make(map[panel.ID]float64)}
}

// ApplyVisualState records the raw value a control is drawn at.
func (g *Game) ApplyVisualState(id panel.ID, raw float64) {
	g.visual[id] = raw
}

func (g *Game) Update() error {
	select {
	case <-g.Done:
		g.Tracker.CancelAll()
		return ebiten.Termination
	default:
	}
	g.Poller.Update(g.Tracker)
	g.Camera.Advance()
	g.keyboard()
	return nil
}

// keyboard is a stand-in for 2D sliders: Tab picks a parameter, the arrow
// keys move it through the bus like any other producer.
func (g *Game) keyboard() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.selected = (g.selected + 1) % param.NumParams
	}
	step := 0.0
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		step += SliderStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		step -= SliderStep
	}
	if step != 0 {
		g.Bus.Publish(g.selected, g.Bus.Latest(g.selected)+step)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		changed := g.Bus.ApplyState(param.DefaultState())
		g.Logger.Info("view: settings reset", "changed", len(changed))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) && g.OnSave != nil {
		g.OnSave(g.Bus.State())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.Tracker.CancelAll()
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	view, proj := g.Camera.Matrices(g.w, g.h)
	project := func(p mgl64.Vec3) (float32, float32) {
		win := mgl64.Project(p, view, proj, 0, 0, g.w, g.h)
		return float32(win[0]), float32(float64(g.h) - win[1])
	}

	for _, k := range g.Registry.AllOfClass(panel.Key) {
		g.drawKey(screen, k, project)
	}
	for _, f := range g.Registry.AllOfClass(panel.Fader) {
		g.drawFader(screen, f, project)
	}
	for _, k := range g.Registry.AllOfClass(panel.Knob) {
		g.drawKnob(screen, k, project)
	}
	g.drawLCD(screen)
}

type projector func(mgl64.Vec3) (float32, float32)

func (g *Game) drawKey(screen *ebiten.Image, k panel.Control, project projector) {
	t := k.Volume.Transform
	c := k.Volume.Center()
	half := mgl64.Vec3{t.At(0, 0) / 2, 0, t.At(2, 2) / 2}
	x0, y0 := project(c.Sub(half))
	x1, y1 := project(c.Add(half))
	col := colWhiteKey
	if k.Black {
		col = colBlackKey
	}
	if g.visual[k.ID] != 0 {
		col = colPressed
	}
	vector.DrawFilledRect(screen, min(x0, x1), min(y0, y1), abs32(x1-x0)-1, abs32(y1-y0), col, false)
}

func (g *Game) drawFader(screen *ebiten.Image, f panel.Control, project projector) {
	c := f.Volume.Center()
	depth := f.Volume.Transform.At(2, 2) / 2
	back, front := c.Sub(mgl64.Vec3{0, 0, depth}), c.Add(mgl64.Vec3{0, 0, depth})
	x0, y0 := project(back)
	x1, y1 := project(front)
	vector.StrokeLine(screen, x0, y0, x1, y1, 3, colTrack, true)

	// the cap travels from the back (raw minimum) to the front
	span := f.Range.Max - f.Range.Min
	pos := (g.raw(f) - f.Range.Min) / span
	cx, cy := project(back.Add(front.Sub(back).Mul(pos)))
	vector.DrawFilledRect(screen, cx-8, cy-3, 16, 6, colCap, true)
}

func (g *Game) drawKnob(screen *ebiten.Image, k panel.Control, project projector) {
	c := k.Volume.Center()
	r := k.Volume.Transform.At(0, 0) / 2
	cx, cy := project(c)
	ex, _ := project(c.Add(mgl64.Vec3{r, 0, 0}))
	radius := abs32(ex - cx)
	vector.DrawFilledCircle(screen, cx, cy, radius, colTrack, true)

	a := g.raw(k)
	tip := c.Add(mgl64.Vec3{r * math.Sin(a), 0, -r * math.Cos(a)})
	tx, ty := project(tip)
	vector.StrokeLine(screen, cx, cy, tx, ty, 2, colCap, true)
}

func (g *Game) drawLCD(screen *ebiten.Image) {
	f := g.Display.Frame()
	shade := uint8(float64(colLCD.G) * (0.4 + 0.6*f.Intensity))
	vector.DrawFilledRect(screen, 8, 8, 16*7+12, 40, color.RGBA{colLCD.R, shade, colLCD.B, 0xff}, false)
	ebitenutil.DebugPrintAt(screen, f.Lines[0]+"\n"+f.Lines[1], 14, 12)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("slider: %s %.2f", g.selected, g.Bus.Latest(g.selected)), 8, 56)
}

func (g *Game) raw(c panel.Control) float64 {
	if v, ok := g.visual[c.ID]; ok {
		return v
	}
	return g.Tracker.Raw(c.ID)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.w || outsideHeight != g.h {
		g.w, g.h = outsideWidth, outsideHeight
		g.Tester.SetViewport(g.w, g.h)
	}
	return outsideWidth, outsideHeight
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
