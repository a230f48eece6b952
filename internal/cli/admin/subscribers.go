package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/sevakai/internal/repository"
	"github.com/cloo-solutions/sevakai/internal/service"
	"github.com/spf13/cobra"
)

func SubscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage newsletter subscribers",
		Long:  "Inspect newsletter subscribers stored in Postgres",
	}

	cmd.AddCommand(SubscribersListCmd())

	return cmd
}

func SubscribersListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List newsletter subscribers",
		Long:  "List newsletter subscribers, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runSubscribersList(outputFormat, limit, cursor)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runSubscribersList(outputFormat string, limit int, cursor string) error {
	ctx := context.Background()

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	pool, err := rt.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := repository.NewSubscriberRepository(pool)
	svc := service.NewNewsletterService(repo, rt.logger)

	result, err := svc.List(ctx, service.ListSubscribersInput{Cursor: cursor, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(result.Items))
		for i, s := range result.Items {
			data[i] = map[string]interface{}{
				"id":         s.ID,
				"email":      s.Email,
				"source":     s.Source,
				"created_at": s.CreatedAt,
			}
		}
		output := map[string]interface{}{
			"items":    data,
			"cursor":   result.Cursor,
			"has_more": result.HasMore,
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	if len(result.Items) == 0 {
		fmt.Println("No subscribers found")
		return nil
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count subscribers: %w", err)
	}

	fmt.Printf("Subscribers (%d total):\n", total)
	for _, s := range result.Items {
		fmt.Printf("  %s  %-40s %-10s %s\n", s.ID, s.Email, s.Source, s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if result.HasMore && result.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", result.Cursor)
	}

	return nil
}
