package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/pagination"
	"github.com/cloo-solutions/sevakai/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriberRepository struct {
	db dbtx
}

func NewSubscriberRepository(pool *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{db: pool}
}

// Create inserts the subscriber unless the email is already present.
func (r *SubscriberRepository) Create(ctx context.Context, s *domain.Subscriber) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO newsletter_subscribers (id, email, source, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT DO NOTHING`,
		s.ID, s.Email, s.Source, s.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	var s domain.Subscriber
	err := r.db.QueryRow(ctx,
		`SELECT id, email, source, created_at
		 FROM newsletter_subscribers
		 WHERE lower(email) = lower($1)`,
		email,
	).Scan(&s.ID, &s.Email, &s.Source, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SubscriberRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.SubscriberPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		if _, perr := uuid.Parse(cursor.LastID); perr != nil {
			return nil, domain.ErrInvalidPagination
		}
		rows, err = r.db.Query(ctx,
			`SELECT id, email, source, created_at
			 FROM newsletter_subscribers
			 WHERE (created_at, id) < ($1, $2::uuid)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, email, source, created_at
			 FROM newsletter_subscribers
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Source, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pageOf(items, limit), nil
}

// Count returns the number of subscribers.
func (r *SubscriberRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM newsletter_subscribers`).Scan(&n)
	return n, err
}

func pageOf(items []*domain.Subscriber, limit int) *service.SubscriberPageResult {
	page, next, hasMore := pagination.Trim(items, limit, func(s *domain.Subscriber) (string, time.Time) {
		return s.ID, s.CreatedAt
	})
	return &service.SubscriberPageResult{
		Items:      page,
		NextCursor: next,
		HasMore:    hasMore,
	}
}
