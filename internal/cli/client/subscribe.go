package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const cliSubscriberSource = "cli"

// SubscribeCmd creates the subscribe command.
func SubscribeCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "subscribe <email>",
		Short: "Subscribe an email address to the newsletter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runSubscribe(cmd.Context(), api, args[0], source, outputJSON)
		},
	}

	cmd.Flags().StringVar(&source, "source", cliSubscriberSource, "Where the signup came from")

	return cmd
}

func runSubscribe(ctx context.Context, api *APIClient, email, source string, outputJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := api.Subscribe(ctx, email, source)
	if err != nil {
		return fmt.Errorf("subscription failed: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(result.Message)
	return nil
}

// SubscribersCmd creates the admin subscriber listing command.
func SubscribersCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "List newsletter subscribers (admin)",
		Long:  "List newsletter subscribers, newest first. Requires the admin key.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runSubscribers(cmd.Context(), api, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runSubscribers(ctx context.Context, api *APIClient, limit int, cursor string, outputJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !api.HasAdminKey() {
		return fmt.Errorf("admin key not set (run 'sevak auth login' or set %s)", envAdminKey)
	}

	page, err := api.ListSubscribers(ctx, limit, cursor)
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(page.Items) == 0 {
		fmt.Println("No subscribers found")
		return nil
	}
	fmt.Println("Subscribers:")
	for _, s := range page.Items {
		fmt.Printf("  %-40s %-10s %s\n", s.Email, s.Source, s.CreatedAt)
	}
	if page.HasMore && page.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", page.Cursor)
	}
	return nil
}
