package client

import (
	"context"

	"github.com/cloo-solutions/medassist/internal/tui"
	"github.com/spf13/cobra"
)

const defaultChatTitle = "Pots-EDS-Experten"

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat",
		Long:  "Opens a terminal chat. Every chat starts a new conversation; Ctrl+U asks for the latest news.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			session, err := api.CreateSession(ctx)
			if err != nil {
				return err
			}
			return tui.Run(ctx, &chatBackend{api: api, sessionID: session.ID}, title)
		},
	}

	cmd.Flags().StringVar(&title, "title", defaultChatTitle, "Assistant name shown in the chat")

	return cmd
}

// chatBackend adapts the API client to the chat screen.
type chatBackend struct {
	api       *APIClient
	sessionID string
}

func (b *chatBackend) Ask(ctx context.Context, question string) (*tui.Reply, error) {
	answer, err := b.api.Ask(ctx, b.sessionID, question)
	if err != nil {
		return nil, err
	}
	return &tui.Reply{
		Text:     answer.Answer,
		Sources:  answer.Sources,
		Links:    toLinks(answer.WebResults),
		Warnings: answer.Warnings,
		Failed:   answer.Failed,
	}, nil
}

func (b *chatBackend) Digest(ctx context.Context) (*tui.Reply, error) {
	digest, err := b.api.Digest(ctx)
	if err != nil {
		return nil, err
	}
	return &tui.Reply{
		Text:     digest.Text,
		Links:    toLinks(digest.WebResults),
		Warnings: digest.Warnings,
		Failed:   digest.Failed,
	}, nil
}

func toLinks(results []WebResult) []tui.Link {
	links := make([]tui.Link, 0, len(results))
	for _, r := range results {
		links = append(links, tui.Link{URL: r.URL, Title: r.Title, PublishedDate: r.PublishedDate})
	}
	return links
}
