package main

import (
	"context"
	"fmt"
	"io"

	"github.com/moffa90/go-genie/genie"
	"github.com/moffa90/go-genie/genietest"
	"github.com/moffa90/go-genie/internal/config"
	"github.com/moffa90/go-genie/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// app holds the state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfgFile  string
	device   string
	baud     int
	verbose  bool
	simulate bool

	cfg    config.Config
	logger zerolog.Logger

	// sim backs --simulate; tests preload it with values and events
	sim *genietest.Display
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "geniectl",
		Short: "Drive a 4D Systems ViSi-Genie display",
		Long: `geniectl talks to a 4D Systems display running a ViSi-Genie program
over a serial line.

Objects are addressed by type name or number and index, or by a widget
name from the config file.

Examples:
  geniectl read slider 0
  geniectl write led 2 1
  geniectl str 0 "Hello" --unicode
  geniectl monitor
  geniectl serve --listen :8089`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (TOML)")
	root.PersistentFlags().StringVarP(&a.device, "device", "d", "", "serial device (overrides config)")
	root.PersistentFlags().IntVarP(&a.baud, "baud", "b", 0, "baud rate (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.simulate, "simulate", false, "use an in-memory simulated display")

	root.AddCommand(newPortsCmd(a))
	root.AddCommand(newReadCmd(a))
	root.AddCommand(newWriteCmd(a))
	root.AddCommand(newContrastCmd(a))
	root.AddCommand(newStrCmd(a))
	root.AddCommand(newMonitorCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

// setup loads the config file, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	profile := logging.ProfileRuntime
	if a.verbose {
		profile = logging.ProfileVerbose
	}
	a.logger = logging.New(a.errOut, "geniectl", logging.ConfigFor(profile))

	cfg := config.Default()
	if a.cfgFile != "" {
		var err error
		cfg, err = config.Load(a.cfgFile)
		if err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = a.device
	}
	if flags.Changed("baud") {
		cfg.Baud = a.baud
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// open starts a session on the configured device, or on the simulator.
func (a *app) open(ctx context.Context) (*genie.Display, error) {
	opts := append(a.cfg.SessionOptions(), genie.WithLogger(logging.NewAdapter(a.logger, "genie")))

	if a.simulate {
		if a.sim == nil {
			a.sim = genietest.New()
		}
		return genie.Attach(ctx, a.sim.Port(), opts...)
	}

	a.logger.Debug().Str("device", a.cfg.Device).Int("baud", a.cfg.Baud).Msg("opening display")
	return genie.Open(ctx, a.cfg.Device, a.cfg.Baud, opts...)
}
