package cli

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"drillsargeant/config"
	"drillsargeant/internal/commands"
	"drillsargeant/internal/report"
	"drillsargeant/internal/server"
	"drillsargeant/internal/watch"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serveCommandName is the only command that logs to the configured stdio
// streams; every other command keeps stdout for its result.
const serveCommandName = "serve"

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   serveCommandName,
		Short: "Serve the backend commands over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Current()
			if port > 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logrus.StandardLogger()
			deps := server.RouterDeps{Config: cfg, Log: log}

			var watcher commands.Watcher
			if cfg.Watcher.Enabled {
				monitor := watch.NewMonitor(cfg.Watcher, log)
				defer monitor.Close()
				watcher = monitor
				deps.Events = monitor
			}
			deps.Registry = commands.NewRegistry(commands.NewService(watcher, log))

			server.SetGinMode(cfg.Server.Mode)
			return server.Run(ctx, server.BuildRouter(deps), cfg.Server.Port, log)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides server.port)")
	return cmd
}

func newAnalyzeCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Run analyze_directory and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := commands.NewService(nil, logrus.StandardLogger())
			result, err := svc.AnalyzeDirectory(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out, err := report.Export(format, result)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: "+strings.Join(report.Formats, "|"))
	return cmd
}

func newSysinfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sysinfo",
		Short: "Run get_system_info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := commands.NewService(nil, logrus.StandardLogger()).GetSystemInfo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info)
			return nil
		},
	}
}

func newWatchCommand() *cobra.Command {
	var ackOnly bool

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Run watch_directory and print change events until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Current()
			log := logrus.StandardLogger()

			if ackOnly || !cfg.Watcher.Enabled {
				ack, err := commands.NewService(nil, log).WatchDirectory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ack)
				return nil
			}

			monitor := watch.NewMonitor(cfg.Watcher, log)
			defer monitor.Close()

			events, cancel := monitor.Subscribe()
			defer cancel()

			ack, err := commands.NewService(monitor, log).WatchDirectory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack)

			if len(monitor.Paths()) == 0 {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %-6s %s\n", ev.Time.Format("15:04:05"), ev.Op, ev.Path)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&ackOnly, "ack-only", false, "Print the acknowledgment and exit without watching")
	return cmd
}
