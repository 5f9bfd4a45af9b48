package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pagelens/pagelens/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serveShutdownTimeout = 10 * time.Second

// newServeCmd creates and configures the 'serve' subcommand, which
// exposes the analysis pipeline over the HTTP API.
func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the analysis HTTP API",
		Long: `Starts the HTTP server exposing the analysis endpoints: batch
analysis, cache and worker statistics, run controls, and Prometheus
metrics. The server drains in-flight requests on SIGINT/SIGTERM.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeCommand(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port from config)")

	return cmd
}

func runServeCommand(cmd *cobra.Command, port int) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger().Named("serve")

	cfg := appInstance.Config()
	if port > 0 {
		cfg.Server.Port = port
	}

	apiServer := api.NewServer(appInstance.Orchestrator(), appInstance.Store(), cfg, appInstance.Logger())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-cmd.Context().Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
