package cli

import (
	"drillsargeant/config"
	"drillsargeant/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the drillsargeant command tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "drillsargeant",
		Short: "Backend for the DrillSargeant desktop app",
		Long: `DrillSargeant serves the commands the desktop front-end invokes:
analyze_directory, get_system_info and watch_directory.
Run "serve" to expose them over HTTP, or call them directly from the
command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(configPath); err != nil {
				return err
			}
			if cmd.Name() == serveCommandName {
				logging.InitLogger()
			} else {
				logging.InitCommandLogger(cmd.ErrOrStderr())
			}
			logrus.Debugf("Configuration loaded (config=%q)", configPath)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default ./config.yaml)")

	cmd.AddCommand(
		newServeCommand(),
		newAnalyzeCommand(),
		newSysinfoCommand(),
		newWatchCommand(),
	)
	return cmd
}
