package client

import (
	"context"
	"fmt"
	"io"

	"github.com/cloo-solutions/medassist/internal/cli"
	"github.com/spf13/cobra"
)

// DigestCmd creates the digest command.
func DigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Summarize the latest news",
		Long:  "Summarizes the latest research news on EDS and POTS from a news-focused web search.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDigest(cmd.Context(), cmd.OutOrStdout(), api, cli.WantsJSON(cmd))
		},
	}
}

func runDigest(ctx context.Context, w io.Writer, api *APIClient, outputJSON bool) error {
	digest, err := api.Digest(ctx)
	if err != nil {
		return fmt.Errorf("digest failed: %w", err)
	}

	if outputJSON {
		return cli.PrintJSON(w, digest)
	}

	fmt.Fprintln(w, digest.Text)
	printProvenance(w, nil, digest.WebResults, digest.Warnings)
	return nil
}
