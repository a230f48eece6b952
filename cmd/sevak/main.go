package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/sevakai/internal/cli"
	"github.com/cloo-solutions/sevakai/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	client.UserAgent = "sevak-cli/" + version

	rootCmd := &cobra.Command{
		Use:   "sevak",
		Short: "SevakAI CLI - talk to the support assistant from your terminal",
		Long: `SevakAI CLI talks to a sevakd server.

Environment variables:
  SEVAK_API_URL        API base URL (default: http://localhost:8080)
  SEVAK_ADMIN_API_KEY  Admin key, only needed for 'sevak subscribers'`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	rootCmd.PersistentFlags().String("admin-key", "", "Admin API key (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.SubscribeCmd())
	rootCmd.AddCommand(client.SubscribersCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
