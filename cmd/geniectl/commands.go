package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/moffa90/go-genie/dispatch"
	"github.com/moffa90/go-genie/internal/bridge"
	"github.com/moffa90/go-genie/internal/logging"
	"github.com/moffa90/go-genie/protocol"
	"github.com/moffa90/go-genie/transport"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := transport.List()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(a.out, "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(a.out, p)
			}
			return nil
		},
	}
}

// target resolves "<widget>" or "<object> <index>" at the front of args and
// returns the remaining arguments.
func (a *app) target(args []string, rest int) (protocol.ObjectType, byte, []string, error) {
	switch len(args) {
	case 1 + rest:
		w, ok := a.cfg.Widget(args[0])
		if !ok {
			return 0, 0, nil, fmt.Errorf("unknown widget %q", args[0])
		}
		return w.Object, w.Index, args[1:], nil
	case 2 + rest:
		object, err := protocol.ParseObjectType(args[0])
		if err != nil {
			return 0, 0, nil, err
		}
		index, err := parseUint(args[1], 8, "index")
		if err != nil {
			return 0, 0, nil, err
		}
		return object, byte(index), args[2:], nil
	default:
		return 0, 0, nil, fmt.Errorf("expected <widget> or <object> <index>")
	}
}

func parseUint(raw string, bits int, what string) (uint64, error) {
	n, err := strconv.ParseUint(raw, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be 0-%d", what, raw, uint64(1)<<bits-1)
	}
	return n, nil
}

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <widget> | read <object> <index>",
		Short: "Read the current value of an object",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			object, index, _, err := a.target(args, 0)
			if err != nil {
				return err
			}
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			v, err := d.ReadObject(cmd.Context(), object, index)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s[%d] = %d\n", object, index, v)
			return nil
		},
	}
}

func newWriteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write <widget> <value> | write <object> <index> <value>",
		Short: "Set the value of an object",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			object, index, rest, err := a.target(args, 1)
			if err != nil {
				return err
			}
			value, err := parseUint(rest[0], 16, "value")
			if err != nil {
				return err
			}
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			return d.WriteObject(cmd.Context(), object, index, uint16(value))
		},
	}
}

func newContrastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contrast <value>",
		Short: "Set the backlight level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseUint(args[0], 8, "contrast")
			if err != nil {
				return err
			}
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			return d.WriteContrast(cmd.Context(), byte(value))
		},
	}
}

func newStrCmd(a *app) *cobra.Command {
	var unicode bool
	cmd := &cobra.Command{
		Use:   "str <index> <text>",
		Short: "Write text to a Strings object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseUint(args[0], 8, "index")
			if err != nil {
				return err
			}
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			if unicode {
				return d.WriteStringUnicode(cmd.Context(), byte(index), args[1])
			}
			return d.WriteString(cmd.Context(), byte(index), args[1])
		},
	}
	cmd.Flags().BoolVarP(&unicode, "unicode", "u", false, "send as UTF-16 to a Unicode Strings object")
	return cmd
}

// errMonitorDone stops monitor after --count reports.
var errMonitorDone = errors.New("monitor: count reached")

func newMonitorCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print reports from the display until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			ctx, cancel := context.WithCancelCause(cmd.Context())
			defer cancel(nil)

			seen := 0
			disp := dispatch.New(
				dispatch.WithLogger(logging.NewAdapter(a.logger, "dispatch")),
				dispatch.WithFallback(func(ctx context.Context, r protocol.Reply) error {
					fmt.Fprintln(a.out, a.describe(r))
					seen++
					if count > 0 && seen >= count {
						cancel(errMonitorDone)
					}
					return nil
				}),
			)
			return disp.Run(ctx, d)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many reports (0 = unlimited)")
	return cmd
}

// describe formats a report, naming the widget when one matches.
func (a *app) describe(r protocol.Reply) string {
	if r.IsReport() {
		for _, w := range a.cfg.Widgets {
			if w.Object == r.Object && w.Index == r.Index {
				return fmt.Sprintf("%s (%s)", r, w.Name)
			}
		}
	}
	return r.String()
}

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the display over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Listen = listen
			}
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			hub := bridge.NewHub()
			disp := dispatch.New(
				dispatch.WithLogger(logging.NewAdapter(a.logger, "dispatch")),
				dispatch.WithFallback(hub.Handle),
			)
			router := bridge.NewRouter(bridge.NewHandler(d, hub, a.cfg.Widgets, a.logger))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return disp.Run(ctx, d)
			})
			g.Go(func() error {
				a.logger.Info().Str("listen", a.cfg.Listen).Msg("bridge listening")
				return bridge.Serve(ctx, a.cfg.Listen, router)
			})
			g.Go(func() error {
				select {
				case <-d.Done():
					if err := d.Err(); err != nil {
						return fmt.Errorf("display session ended: %w", err)
					}
				case <-ctx.Done():
				}
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "HTTP listen address (overrides config)")
	return cmd
}
