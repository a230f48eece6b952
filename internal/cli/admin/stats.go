package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/repository"
	"github.com/spf13/cobra"
)

var outcomeOrder = []domain.ReplyOutcome{
	domain.ReplyOutcomeAnswered,
	domain.ReplyOutcomeEmpty,
	domain.ReplyOutcomeFailed,
	domain.ReplyOutcomeUnavailable,
}

// StatsCmd reports how chatbot replies were produced.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show chatbot reply outcomes",
		Long:  "Count recorded chatbot replies by outcome (answered, empty, failed, unavailable)",
		RunE:  runStats,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

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

	counts, err := repository.NewChatEventRepository(pool).CountByOutcome(ctx)
	if err != nil {
		return fmt.Errorf("failed to count chat events: %w", err)
	}

	if outputFormat == "json" {
		data := make(map[string]int, len(outcomeOrder))
		for _, o := range outcomeOrder {
			data[string(o)] = counts[o]
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	total := 0
	for _, o := range outcomeOrder {
		total += counts[o]
	}
	fmt.Printf("Chat replies (%d total):\n", total)
	for _, o := range outcomeOrder {
		fmt.Printf("  %-12s %d\n", o, counts[o])
	}

	return nil
}
