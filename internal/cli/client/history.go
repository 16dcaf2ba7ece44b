package client

import (
	"context"
	"fmt"
	"io"

	"github.com/cloo-solutions/medassist/internal/cli"
	"github.com/spf13/cobra"
)

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	var (
		sessionID string
		limit     int
		cursor    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the turns of a conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if sessionID == "" {
				config, err := LoadGlobalConfig()
				if err != nil {
					return err
				}
				if config == nil || config.SessionID == "" {
					return fmt.Errorf("no conversation yet (run 'medassist ask' first or pass --session)")
				}
				sessionID = config.SessionID
			}
			return runHistory(cmd.Context(), cmd.OutOrStdout(), api, sessionID, cursor, limit, cli.WantsJSON(cmd))
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session to show (default: the last conversation)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of turns")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runHistory(ctx context.Context, w io.Writer, api *APIClient, sessionID, cursor string, limit int, outputJSON bool) error {
	page, err := api.Turns(ctx, sessionID, cursor, limit)
	if err != nil {
		return fmt.Errorf("failed to list turns: %w", err)
	}

	if outputJSON {
		return cli.PrintJSON(w, page)
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No turns yet.")
		return nil
	}
	for _, t := range page.Items {
		fmt.Fprintf(w, "[%s] %s\n%s\n\n", t.CreatedAt, t.Role, t.Content)
	}
	if page.HasMore {
		fmt.Fprintf(w, "More turns: --cursor %s\n", page.Cursor)
	}
	return nil
}
