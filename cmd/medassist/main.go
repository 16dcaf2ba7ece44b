package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/medassist/internal/cli"
	"github.com/cloo-solutions/medassist/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "medassist",
		Short: "Medassist CLI - answers about EDS, POTS and MCAS",
		Long: `Medassist CLI talks to a medassistd server.

Environment variables:
  MEDASSIST_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.DigestCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.StatusCmd())

	if handled, err := cli.HandleHelpJSON(rootCmd, os.Args[1:], os.Stdout); handled {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
