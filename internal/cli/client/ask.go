package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the support assistant a single question",
		Long:  "Opens a chat session, asks one question, prints the answer and ends the session.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), api, strings.Join(args, " "), outputJSON, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the answer without markdown rendering")

	return cmd
}

func runAsk(ctx context.Context, api *APIClient, question string, outputJSON, raw bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	session, err := api.StartSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = api.EndSession(context.WithoutCancel(ctx), session.ID) }()

	result, err := api.SendMessage(ctx, session.ID, question)
	if err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result.Reply, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if raw {
		fmt.Println(result.Reply.Text)
	} else {
		fmt.Println(renderMarkdown(result.Reply.Text, defaultWrapWidth))
	}
	if len(result.Reply.ContextTitles) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(result.Reply.ContextTitles, ", "))
	}

	return nil
}
