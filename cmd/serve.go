package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Enroll HTTP API.

POST /api/encode turns front, left and right photos into a reference
embedding. When DATABASE_URL (PostgreSQL) or MYSQL_DSN (MariaDB) is set the
student API under /api/student is served as well.

Examples:
  # Listen on the configured WEB_HOST/WEB_PORT
  face-enroll serve

  # Override the port
  face-enroll serve --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 5002)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 0.0.0.0)")
}

// resolveServeHostPort applies --host and --port over the environment config.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Server.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Server.Host = host
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	resolveServeHostPort(cmd, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closer, err := openIdentityStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	} else {
		slog.Warn("no identity store configured, student API disabled")
	}

	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	server := web.NewServer(cfg, pipeline, store, slog.Default())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Enroll API on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
