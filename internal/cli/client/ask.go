package client

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/medassist/internal/cli"
	"github.com/spf13/cobra"
)

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		sessionID  string
		newSession bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question",
		Long: `Asks a question about EDS, POTS or MCAS. The answer draws on the local
knowledge base and live web results. Questions continue the last conversation
unless --session or --new is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			return runAsk(cmd.Context(), cmd.OutOrStdout(), api, question, sessionID, newSession, cli.WantsJSON(cmd))
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session to continue")
	cmd.Flags().BoolVar(&newSession, "new", false, "Start a new conversation")

	return cmd
}

func runAsk(ctx context.Context, w io.Writer, api *APIClient, question, sessionID string, newSession, outputJSON bool) error {
	session, err := resolveSession(ctx, api, sessionID, newSession)
	if err != nil {
		return err
	}

	answer, err := api.Ask(ctx, session, question)
	if IsNotFound(err) && sessionID == "" {
		// The server keeps sessions in memory; start over after a restart.
		if session, err = resolveSession(ctx, api, "", true); err != nil {
			return err
		}
		answer, err = api.Ask(ctx, session, question)
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if outputJSON {
		return cli.PrintJSON(w, struct {
			SessionID string `json:"session_id"`
			*Answer
		}{session, answer})
	}

	fmt.Fprintln(w, answer.Answer)
	printProvenance(w, answer.Sources, answer.WebResults, answer.Warnings)
	return nil
}

// resolveSession returns the session to continue: the explicit one, else the
// remembered one, else a new session that is remembered for next time.
func resolveSession(ctx context.Context, api *APIClient, sessionID string, newSession bool) (string, error) {
	if sessionID != "" {
		return sessionID, nil
	}

	if !newSession {
		config, err := LoadGlobalConfig()
		if err != nil {
			return "", err
		}
		if config != nil && config.SessionID != "" {
			return config.SessionID, nil
		}
	}

	session, err := api.CreateSession(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	if err := updateGlobalConfig(func(c *GlobalConfig) { c.SessionID = session.ID }); err != nil {
		return "", err
	}
	return session.ID, nil
}

func printProvenance(w io.Writer, sources []string, links []WebResult, warnings []string) {
	if len(sources) > 0 {
		fmt.Fprintf(w, "\nLokala källor: %s\n", strings.Join(sources, ", "))
	}
	if len(links) > 0 {
		fmt.Fprintln(w, "\nWebbkällor:")
		for _, l := range links {
			line := "  " + l.URL
			if l.Title != "" {
				line = "  " + l.Title + " " + l.URL
			}
			if l.PublishedDate != "" {
				line += " (" + l.PublishedDate + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
