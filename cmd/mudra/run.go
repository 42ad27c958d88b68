package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/inject"
	"github.com/ayusman/mudra/internal/tray"
)

var (
	flagHeadless bool
	flagActive   bool
)

func init() {
	rootCmd.RunE = runControl
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run without the tray menu (control starts enabled)")
	rootCmd.Flags().BoolVar(&flagActive, "active", false, "enable mouse control at start")
}

func runControl(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("headless") {
		cfg.Headless = flagHeadless
	}

	var injector control.Injector
	if cfg.DryRun {
		injector = inject.NewLogInjector(log)
		log.Info("Dry run: actions are logged, not injected")
	} else {
		injector = inject.NewRobotInjector(inject.Config{
			FailSafe:   cfg.FailSafe,
			CornerSize: inject.DefaultConfig().CornerSize,
		}, log)
	}

	a := app.New(app.Config{
		Store:    db,
		Camera:   cfg.Camera,
		Motion:   cfg.Motion,
		Control:  cfg.Control,
		Injector: injector,
		Persist:  cfg.Persist,
		Log:      log,
	})
	overrideSaved(cmd, a)

	if err := a.Start(); err != nil {
		return err
	}

	if cfg.Headless || flagActive {
		if err := a.SetActive(true); err != nil {
			log.WithError(err).Warn("Failed to enable mouse control")
		}
	}

	if cfg.Headless {
		log.Info("Running headless, press Ctrl+C to quit")
		<-cmd.Context().Done()
		a.Stop()
		return nil
	}

	runTray(cmd.Context(), a)
	a.Stop()
	return nil
}

// overrideSaved reapplies tuning flags on top of restored settings so an
// explicit flag always wins.
func overrideSaved(cmd *cobra.Command, a *app.App) {
	flags := cmd.Flags()
	if flags.Changed("sensitivity") {
		a.SetSensitivity(cfg.Control.Sensitivity)
	}
	if flags.Changed("smoothing") {
		a.SetSmoothing(cfg.Control.Smoothing)
	}
	if flags.Changed("mapping") {
		a.SetMapping(cfg.Control.Mapping)
	}
}

// runTray blocks in the tray event loop until Quit is chosen or ctx ends.
func runTray(ctx context.Context, a *app.App) {
	t := tray.New(a, log)
	t.OnQuit(func() { log.Info("Quit requested") })

	var (
		lastHand   bool
		lastMapped bool
		lastLabel  gesture.Label
	)
	a.OnFrame(func(f control.Frame) {
		if f.Hand == lastHand && f.Mapped == lastMapped && f.Gesture == lastLabel {
			return
		}
		lastHand, lastMapped, lastLabel = f.Hand, f.Mapped, f.Gesture
		t.Refresh()
	})

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}
