package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg is the resolved configuration shared by subcommands.
	cfg config.Config
	// db is opened before any subcommand runs.
	db  *store.Store
	log *logrus.Logger

	envFile     string
	flagDB      string
	flagLevel   string
	flagLogFile string
	flagCamera  int
	flagDryRun  bool
	flagNoSafe  bool
	flagMapping string
	flagSens    float64
	flagSmooth  float64
)

var rootCmd = &cobra.Command{
	Use:     "mudra",
	Short:   "Control the mouse with hand gestures from a webcam",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := applyFlags(cmd, &cfg); err != nil {
			return err
		}
		cfg = cfg.Normalize()

		log, err = logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		db, err = store.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		log.WithField("path", db.Path()).Debug("Store opened")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = flagDB
	}
	if flags.Changed("log-level") {
		c.LogLevel = flagLevel
	}
	if flags.Changed("log-file") {
		c.LogFile = flagLogFile
	}
	if flags.Changed("camera") {
		c.Camera.DeviceID = flagCamera
	}
	if flags.Changed("dry-run") {
		c.DryRun = flagDryRun
	}
	if flags.Changed("no-failsafe") {
		c.FailSafe = !flagNoSafe
	}
	if flags.Changed("mapping") {
		mode, err := pointer.ParseMode(flagMapping)
		if err != nil {
			return fmt.Errorf("--mapping: %w", err)
		}
		c.Control.Mapping = mode
	}
	if flags.Changed("sensitivity") {
		c.Control.Sensitivity = flagSens
	}
	if flags.Changed("smoothing") {
		c.Control.Smoothing = flagSmooth
	}
	return nil
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file with MUDRA_* settings (ignored when missing)")
	pf.StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.mudra/mudra.db)")
	pf.StringVar(&flagLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flagLogFile, "log-file", "", "also write logs to this file, rotated by size")
	pf.IntVar(&flagCamera, "camera", 0, "camera device index")
	pf.BoolVar(&flagDryRun, "dry-run", false, "log actions instead of moving the mouse")
	pf.BoolVar(&flagNoSafe, "no-failsafe", false, "disable the top-left corner fail-safe")
	pf.StringVar(&flagMapping, "mapping", "direct", "pointer mapping: direct or zone")
	pf.Float64Var(&flagSens, "sensitivity", pointer.DefaultSensitivity, "direct-mapping gain")
	pf.Float64Var(&flagSmooth, "smoothing", pointer.DefaultSmoothing, "smoothing factor, 1 disables smoothing")
}
