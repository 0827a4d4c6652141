package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/visual-search/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Visual Search HTTP API.

The API accepts product uploads, lists and deletes products, and ranks the
catalog against an uploaded query image.

Examples:
  # Listen on the port from WEB_PORT (default 5000)
  visual-search serve

  # Override host and port
  visual-search serve --host 127.0.0.1 --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	ctx := cmd.Context()
	svc, closer, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	count, err := svc.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	logger.Info("catalog loaded", "products", count, "bits", svc.Bits(), "driver", cfg.Database.Driver)

	server := web.NewServer(cfg, svc, logger)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	<-shutdownDone
	return nil
}
