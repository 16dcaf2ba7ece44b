package admin

import (
	"context"
	"fmt"
	"os"

	"github.com/cloo-solutions/medassist/internal/cli"
	"github.com/cloo-solutions/medassist/internal/config"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index the document source",
		Long:  "Index every supported document of the configured source. Does nothing when the knowledge base already holds segments.",
		RunE:  runIngest,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip database migrations")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	a, err := newApp(ctx, cfg, appOptions{migrate: !noMigrate})
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.ingestor.Ingest(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if cli.WantsJSON(cmd) {
		return cli.PrintJSON(os.Stdout, report)
	}
	logReport(report)
	return nil
}
