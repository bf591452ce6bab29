package main

import (
	"fmt"
	"os"
	"runtime"

	"GuardianLink/pkg/config"
	"GuardianLink/pkg/logger"

	"github.com/spf13/cobra"
)

// 由 -ldflags "-X main.version=..." 注入
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "guardianlink",
	Short: "GuardianLink personal safety service",
	Long: `GuardianLink serves the SOS broadcaster, trusted contacts and chat rooms
over HTTP, with live updates over SSE and WebSocket.

Examples:
  guardianlink serve                  # start the API server
  guardianlink backup run             # snapshot the store now
  guardianlink backup restore <file>  # load a snapshot into the store`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := config.Load(); err != nil {
			return err
		}
		if err := logger.Init(config.GlobalConfig.Log, config.GlobalConfig.Mode); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "guardianlink %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
