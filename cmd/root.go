package cmd

import (
	"fmt"
	"os"

	"navi/internal/app"
	"navi/internal/config"
	"navi/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	configDir string
	userID    string
)

// rootCmd is the base command for the navi CLI.
var rootCmd = &cobra.Command{
	Use:   "navi",
	Short: "One interface over your mail, calendar and notes providers",
	Long: `navi exposes Gmail, Google Calendar, Microsoft Outlook and Notion
behind a uniform capability interface, and aggregates calendar events
from all connected providers into a single agenda.`,
	// SilenceUsage prevents Cobra from printing usage on handled errors.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main
// to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "navi version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Configuration directory (default ~/.config/navi)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "default", "User whose credentials to use")
}

// loadApp builds the runtime from configuration. Shared by every
// subcommand that talks to providers.
func loadApp() (*app.App, error) {
	dir := configDir
	if dir == "" {
		dir = config.GetDefaultConfigPathOrPanic()
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(config.ParseLogLevel(cfg.LogLevel), os.Stderr)

	return app.New(cfg)
}
