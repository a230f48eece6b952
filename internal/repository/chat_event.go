package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatEventRepository stores one row per chatbot reply.
type ChatEventRepository struct {
	db dbtx
}

func NewChatEventRepository(pool *pgxpool.Pool) *ChatEventRepository {
	return &ChatEventRepository{db: pool}
}

func (r *ChatEventRepository) Record(ctx context.Context, e *domain.ChatEvent) error {
	titles := e.ContextTitles
	if titles == nil {
		titles = []string{}
	}
	titlesJSON, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("failed to encode context titles: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO chat_events (id, session_id, outcome, context_titles, query_length, duration_ms, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID,
		nullableString(e.SessionID),
		string(e.Outcome),
		titlesJSON,
		e.QueryLength,
		e.DurationMs,
		nullableString(e.Error),
		e.CreatedAt,
	)
	return err
}

// CountByOutcome tallies recorded replies per outcome.
func (r *ChatEventRepository) CountByOutcome(ctx context.Context) (map[domain.ReplyOutcome]int, error) {
	rows, err := r.db.Query(ctx, `SELECT outcome, COUNT(*) FROM chat_events GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ReplyOutcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[domain.ReplyOutcome(outcome)] = n
	}
	return counts, rows.Err()
}
