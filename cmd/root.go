// Package cmd defines and implements the CLI commands for the pagelens
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/app"
	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/orchestrator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	Logger() *zap.Logger
	Orchestrator() *orchestrator.Orchestrator
	Store() analysis.ResultStore
	Config() config.Config
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(ctx, cfg, app.Options{})
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagelens",
		Short: "Analyzes web page content for structure, readability, and type.",
		Long: `pagelens reads markdown page content and runs it through a pipeline of
analyzers: content metrics (readability, sentiment, density), page type
classification, and section detection. Results can be written as JSON
files or served over an HTTP API.`,

		SilenceUsage: true,

		// This hook runs AFTER flags are parsed but BEFORE the
		// subcommand's RunE, which makes it the place to build and
		// inject the application services.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}

			// Store the app instance in the context for subcommands to use.
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (overrides PAGELENS_* env vars)")

	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// resolveApp retrieves the injected application services from the
// command context.
func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// ExecuteContext is the main entry point. The context bounds every
// subcommand, so cancelling it stops serve and in-flight analysis runs.
func ExecuteContext(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pagelens: %v\n", err)
		os.Exit(1)
	}
}
