// Package cmd implements flowsttd's cobra CLI: a root command carrying
// persistent flags plus one file per subcommand, scaled down from a
// multi-service orchestrator's CLI shape to a single long-running
// daemon.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	listen   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "flowsttd",
	Short: "FlowSTT background transcription daemon",
	Long: `flowsttd captures microphone and system audio, detects speech,
and transcribes it locally via an external Whisper CLI, exposing a
GUI-facing HTTP and websocket API for a companion desktop app.`,
	RunE: runServe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ~/.flowstt/config.toml)")
	rootCmd.PersistentFlags().StringVar(&listen, "listen", "", "GUI IPC listen address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace|debug|info|warn|error (overrides config)")
}
