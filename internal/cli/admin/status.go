package admin

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/cloo-solutions/medassist/internal/cli"
	"github.com/cloo-solutions/medassist/internal/config"
	"github.com/spf13/cobra"
)

type sourceStatus struct {
	File     string `json:"file"`
	Segments int    `json:"segments"`
}

type storeStatus struct {
	Segments int            `json:"segments"`
	Sources  []sourceStatus `json:"sources"`
}

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the knowledge base holds",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	count, err := a.store.Count(ctx)
	if err != nil {
		return err
	}
	sources, err := a.store.Sources(ctx)
	if err != nil {
		return err
	}

	status := storeStatus{Segments: count, Sources: make([]sourceStatus, 0, len(sources))}
	for file, n := range sources {
		status.Sources = append(status.Sources, sourceStatus{File: file, Segments: n})
	}
	sort.Slice(status.Sources, func(i, j int) bool { return status.Sources[i].File < status.Sources[j].File })

	if cli.WantsJSON(cmd) {
		return cli.PrintJSON(os.Stdout, status)
	}

	fmt.Printf("%d segments from %d documents\n", status.Segments, len(status.Sources))
	for _, s := range status.Sources {
		fmt.Printf("  %-40s %d\n", s.File, s.Segments)
	}
	return nil
}
