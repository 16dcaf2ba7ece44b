package client

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cloo-solutions/medassist/internal/cli"
	"github.com/spf13/cobra"
)

// InitCmd creates the init command.
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Save the API URL",
		Long:  "Checks that the API answers at --api-url and saves the URL to the user config.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, _ := cmd.Flags().GetString("api-url")
			if apiURL == "" {
				apiURL = os.Getenv(envAPIURL)
			}
			if apiURL == "" {
				apiURL = defaultAPIURL
			}
			return runInit(cmd.Context(), cmd.OutOrStdout(), apiURL, cli.WantsJSON(cmd))
		},
	}
}

func runInit(ctx context.Context, w io.Writer, apiURL string, outputJSON bool) error {
	api := NewAPIClientWithURL(apiURL)
	if err := api.Health(ctx); err != nil {
		return fmt.Errorf("API at %s is not reachable: %w", api.BaseURL(), err)
	}

	if err := updateGlobalConfig(func(c *GlobalConfig) {
		if c.APIURL != api.BaseURL() {
			c.SessionID = ""
		}
		c.APIURL = api.BaseURL()
	}); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if outputJSON {
		return cli.PrintJSON(w, map[string]interface{}{
			"success": true,
			"api_url": api.BaseURL(),
			"config":  configPath,
		})
	}
	fmt.Fprintf(w, "Saved API URL %s to %s\n", api.BaseURL(), configPath)
	return nil
}
