package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/timkado/api/clinic-case-service/internal/config"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

const serviceName = "clinic-case-service"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Clinic case management API and WhatsApp intake webhook",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "directory containing default.yaml")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(seedCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the ops server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

// bootstrap loads and validates configuration, then sets up logging and
// metrics. Every invalid setting is reported at once.
func bootstrap(configPath string) (*config.Config, error) {
	time.Local = time.UTC

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	observer.InitMetrics(cfg.Metrics.Enabled)
	return cfg, nil
}
