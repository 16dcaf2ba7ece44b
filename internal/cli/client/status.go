package client

import (
	"context"
	"fmt"
	"io"

	"github.com/cloo-solutions/medassist/internal/cli"
	"github.com/spf13/cobra"
)

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the knowledge base holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runStatus(cmd.Context(), cmd.OutOrStdout(), api, cli.WantsJSON(cmd))
		},
	}
}

func runStatus(ctx context.Context, w io.Writer, api *APIClient, outputJSON bool) error {
	status, err := api.KnowledgeStatus(ctx)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	if outputJSON {
		return cli.PrintJSON(w, status)
	}

	fmt.Fprintf(w, "API: %s\n", api.BaseURL())
	fmt.Fprintf(w, "%d segments from %d documents\n", status.Segments, len(status.Sources))
	for _, s := range status.Sources {
		fmt.Fprintf(w, "  %-40s %d\n", s.File, s.Segments)
	}
	return nil
}
