package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/neurolens/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking NEUROLENS_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("NEUROLENS_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the neurolens CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "neurolens",
		Short: "OpenNeuroLens demo dashboard client",
		Long:  "neurolens logs in to an OpenNeuroLens server, uploads EEG files and follows their processing.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(flagLogLevel, flagLogFormat)
			client = NewClient(flagServer, LoadSession(flagServer), logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Server URL (or NEUROLENS_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newDatasetsCmd(),
		newProcessCmd(),
		newStatusCmd(),
		newSignalsCmd(),
	)

	return root
}
