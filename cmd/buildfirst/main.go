// Command buildfirst turns an approved project specification and an
// optional dataset into a trained model and a generated web application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/app"
	"github.com/Vansh-04/buildfirst/internal/config"
	"github.com/Vansh-04/buildfirst/internal/logging"
)

var (
	// Global flags
	verbose    bool
	logFormat  string
	configPath string
	workspace  string
	timeout    time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "buildfirst",
	Short: "Build an ML-backed web application from an approved specification",
	Long: `buildfirst runs a fixed sequence of stages over a workspace:

  intake → inspect → acquire → strategy → train → compose →
  backend plan → backend code → frontend

Every stage writes a versioned artifact. Re-running skips work whose
inputs have not changed. A failing stage is diagnosed and, where a
known remedy exists, retried once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose, logFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Operation timeout")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if workspace != "" {
		cfg.Workspace = workspace
	}
	return cfg, nil
}

// openApp loads config and wires the store and generative capability.
// The returned context is cancelled on SIGINT/SIGTERM or after --timeout.
func openApp(cmd *cobra.Command, withTimeout bool) (context.Context, *app.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	cancel := func() {}
	if withTimeout {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		cancel()
		stop()
		return nil, nil, nil, err
	}
	return ctx, a, func() {
		if err := a.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
		cancel()
		stop()
	}, nil
}
