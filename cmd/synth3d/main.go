// Command synth3d is a touch-playable 3D synthesizer panel: a 25-key
// keyboard, four envelope faders and three knobs that drive an external
// synthesizer over MIDI and an optional serial LCD.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chase3718/synth3d/internal/bus"
	"github.com/chase3718/synth3d/internal/camera"
	"github.com/chase3718/synth3d/internal/display"
	"github.com/chase3718/synth3d/internal/engine"
	"github.com/chase3718/synth3d/internal/hittest"
	"github.com/chase3718/synth3d/internal/mapping"
	"github.com/chase3718/synth3d/internal/panel"
	"github.com/chase3718/synth3d/internal/param"
	"github.com/chase3718/synth3d/internal/preset"
	"github.com/chase3718/synth3d/internal/touch"
	"github.com/chase3718/synth3d/internal/view"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"
)

// -------------------- Logger --------------------

var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// -------------------- Tunables --------------------

const (
	WINDOW_W      = 1280
	WINDOW_H      = 720
	TPS           = 120
	GYRO_DEMO_HZ  = 60
	GYRO_DEMO_AMP = 2.0 // rad/s
	PRESET_FILE   = "synth3d-preset.json"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	midiPort := flag.String("midi", "", "MIDI output name pattern (default: first preferred synth)")
	midiVirtual := flag.String("midi-virtual", "", "create a virtual MIDI output with this name instead")
	channel := flag.Int("channel", 0, "MIDI channel 0-15")
	baseNote := flag.Int("base-note", touch.DefaultBaseNote, "base MIDI note; key i plays base+i")
	knobGearing := flag.Float64("knob-gearing", mapping.DefaultKnobGearing, "knob radians per pixel")
	faderGearing := flag.Float64("fader-gearing", mapping.DefaultFaderGearing, "fader units per pixel")
	serialDev := flag.String("serial", "", "serial device of the LCD board (empty: none)")
	baud := flag.Int("baud", 115200, "LCD serial baud rate")
	presetPath := flag.String("preset", "", "JSON preset to load at start-up and save with S")
	touchRadius := flag.Float64("touch-radius", 0, "finger radius in pixels for key glissando")
	gyroDemo := flag.Bool("gyro-demo", false, "feed a synthetic motion sensor into the camera")
	flag.Parse()

	initLogger(*debug)

	state := param.DefaultState()
	if *presetPath != "" {
		s, err := preset.LoadJSON(*presetPath)
		switch {
		case err == nil:
			state = s
			logger.Info("preset: loaded", "path", *presetPath)
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("preset: not found, using defaults", "path", *presetPath)
		default:
			logger.Error("preset: load failed", "path", *presetPath, "err", err)
			os.Exit(1)
		}
	}

	reg, err := panel.New(panel.DefaultRig().Layout(panel.DefaultNodes(), logger))
	if err != nil {
		logger.Error("panel: invalid layout", "err", err)
		os.Exit(1)
	}
	logger.Info("panel: ready", "controls", reg.Len())

	params := bus.New(state, logger)
	rig := camera.NewRig(logger)

	send := engine.Silent
	var watcher *engine.Watcher
	drv, err := engine.OpenDriver()
	if err != nil {
		logger.Warn("midi: no driver, running silent", "err", err)
	} else {
		defer drv.Close()
		if *midiVirtual != "" {
			port, err := engine.OpenVirtual(drv, *midiVirtual, logger)
			if err != nil {
				logger.Error("midi: virtual port failed", "err", err)
				os.Exit(1)
			}
			defer port.Close()
			if send, err = port.Sender(); err != nil {
				logger.Error("midi: sender failed", "device", port.Name(), "err", err)
				os.Exit(1)
			}
		} else {
			// silent until the watcher finds a device
			watcher = engine.NewWatcher(drv, *midiPort, logger)
			defer watcher.Close()
		}
	}
	eng, err := engine.NewMIDI(send, *channel, params, logger)
	if err != nil {
		logger.Error("midi: bad configuration", "err", err)
		os.Exit(1)
	}
	if watcher != nil {
		eng.Watch(watcher)
	}

	var lcd *display.Panel
	if *serialDev != "" {
		sp, err := display.OpenSerial(*serialDev, *baud, logger)
		if err != nil {
			ports, _ := display.Ports()
			logger.Error("serial: failed to open port", "err", err, "available", ports)
			os.Exit(1)
		}
		defer sp.Close()
		lcd = display.NewPanel(sp, logger)
	} else {
		lcd = display.NewPanel(nil, logger)
	}

	tester := hittest.New(reg, rig, WINDOW_W, WINDOW_H)
	tester.SetTouchRadius(*touchRadius)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	savePath := *presetPath
	if savePath == "" {
		savePath = PRESET_FILE
	}
	game := view.New(view.Deps{
		Registry: reg,
		Tester:   tester,
		Camera:   rig,
		Bus:      params,
		Display:  lcd,
		Poller:   view.NewPoller(logger),
		Done:     ctx.Done(),
		Logger:   logger,
		OnSave: func(s param.State) {
			if err := preset.SaveJSON(savePath, s); err != nil {
				logger.Error("preset: save failed", "path", savePath, "err", err)
				return
			}
			logger.Info("preset: saved", "path", savePath)
		},
	})
	game.Tracker = touch.New(touch.Config{
		Registry:  reg,
		Locator:   tester,
		Notes:     eng,
		Params:    params,
		Camera:    rig,
		Visual:    game,
		OnKeyDown: lcd.KeyPressed,
		BaseNote:  *baseNote,
		Gearing:   mapping.Gearing{Knob: *knobGearing, Fader: *faderGearing},
		Logger:    logger,
	})
	params.SubscribeAll(game.Tracker.Sync)
	params.SubscribeAll(lcd.Show)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error { return lcd.Run(gctx) })
	if *gyroDemo {
		g.Go(func() error { return wobble(gctx, rig) })
	}

	ebiten.SetWindowTitle("synth3d")
	ebiten.SetWindowSize(WINDOW_W, WINDOW_H)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(TPS)
	logger.Info("synth3d: running", "base_note", *baseNote, "channel", *channel)
	runErr := ebiten.RunGame(game)

	// panic release before the engine loop sends all notes off
	game.Tracker.CancelAll()
	stop()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("synth3d: background task failed", "err", err)
	}
	if runErr != nil {
		logger.Error("synth3d: window closed with error", "err", runErr)
		os.Exit(1)
	}
	logger.Info("synth3d: bye")
}

// wobble stands in for a gyroscope: a slow figure-eight rotation rate.
func wobble(ctx context.Context, rig *camera.Rig) error {
	ticker := time.NewTicker(time.Second / GYRO_DEMO_HZ)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			rig.ApplyRotationRate(mgl64.Vec3{0, GYRO_DEMO_AMP * math.Sin(t), GYRO_DEMO_AMP * math.Sin(2*t)})
		}
	}
}
