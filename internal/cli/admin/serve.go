package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/medassist/internal/api/handlers"
	"github.com/cloo-solutions/medassist/internal/config"
	"github.com/cloo-solutions/medassist/internal/jobs"
	"github.com/cloo-solutions/medassist/internal/server"
	"github.com/cloo-solutions/medassist/internal/service"
	"github.com/spf13/cobra"
)

const sessionReapInterval = 10 * time.Minute

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the medassist API server. The knowledge base is indexed on startup when it is empty.",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-ingest", false, "Skip indexing the document source on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	if portFlag, _ := cmd.Flags().GetString("port"); portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	a, err := newApp(ctx, cfg, appOptions{migrate: !noMigrate})
	if err != nil {
		return err
	}
	defer a.Close()

	noIngest, _ := cmd.Flags().GetBool("no-ingest")
	if cfg.IngestOnStart && !noIngest {
		ingestOnStart(ctx, a.ingestor)
	}

	sessions := service.NewSessionManager()
	reaper := jobs.NewWorker(jobs.NewSessionReaper(sessions, cfg.SessionIdleTimeout), sessionReapInterval)
	go reaper.Start(ctx)
	router := server.NewRouter(server.RouterConfig{
		SessionHandler:   handlers.NewSessionHandler(sessions, a.assistant),
		DigestHandler:    handlers.NewDigestHandler(a.assistant),
		KnowledgeHandler: handlers.NewKnowledgeHandler(a.store, a.ingestor),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// ingestOnStart indexes the document source. A failure leaves the server
// running with whatever the store already holds.
func ingestOnStart(ctx context.Context, ingestor *service.Ingestor) {
	report, err := ingestor.Ingest(ctx)
	if err != nil {
		log.Printf("warning: ingestion failed (continuing): %v", err)
		return
	}
	logReport(report)
}

func logReport(report *service.IngestReport) {
	if report.Skipped {
		log.Printf("ingestion: knowledge base already populated, skipped %s", report.Source)
		return
	}
	log.Printf("ingestion: indexed %d segments from %d files in %s", report.Segments, report.Files, report.Source)
	for _, w := range report.Warnings {
		log.Printf("warning: ingestion: skipped %s: %s", w.File, w.Reason)
	}
}
