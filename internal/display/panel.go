package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/chase3718/synth3d/internal/param"
)

// Backlight levels.
const (
	BrightIntensity = 1.0
	DimIntensity    = 0.25
)

// Panel keeps the LCD contents on the input goroutine and hands the newest
// frame to Run through a one-slot mailbox. Show, KeyPressed and Frame must be
// called from the input goroutine.
type Panel struct {
	out     io.Writer
	mailbox chan Frame
	cur     Frame
	logger  *slog.Logger
}

// NewPanel returns a panel writing frames to out. out may be nil when there
// is no display board; the frame is still kept for on-screen rendering.
func NewPanel(out io.Writer, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{
		out:     out,
		mailbox: make(chan Frame, 1),
		cur:     Frame{Intensity: BrightIntensity},
		logger:  logger,
	}
}

// Show puts the readout for p on the display at full brightness. Subscribe
// it to the parameter bus.
func (p *Panel) Show(prm param.Param, v float64) {
	title, value := Readout(prm, v)
	p.post(Frame{Lines: [2]string{title, value}, Intensity: BrightIntensity})
}

// KeyPressed dims the backlight.
func (p *Panel) KeyPressed() {
	if p.cur.Intensity == DimIntensity {
		return
	}
	f := p.cur
	f.Intensity = DimIntensity
	p.post(f)
}

// Frame returns what the display currently shows.
func (p *Panel) Frame() Frame { return p.cur }

func (p *Panel) post(f Frame) {
	p.cur = f
	if p.out == nil {
		return
	}
	for {
		select {
		case p.mailbox <- f:
			return
		default:
		}
		// replace the stale frame
		select {
		case <-p.mailbox:
		default:
		}
	}
}

// Run writes posted frames until ctx is done.
func (p *Panel) Run(ctx context.Context) error {
	if p.out == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	var last Frame
	sent := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-p.mailbox:
			data := f.Encode()
			if sent && f.Lines == last.Lines {
				if f.Intensity == last.Intensity {
					continue
				}
				data = IntensityFrame(f.Intensity)
			}
			if _, err := p.out.Write(data); err != nil {
				p.logger.Error("display: write failed", "err", err)
				continue
			}
			last, sent = f, true
			p.logger.Debug("display: frame sent", "frame", f, "bytes", len(data))
		}
	}
}

func (f Frame) String() string {
	return fmt.Sprintf("%q/%q@%.2f", f.Lines[0], f.Lines[1], f.Intensity)
}
