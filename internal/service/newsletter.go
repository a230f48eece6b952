package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/logging"
	"github.com/cloo-solutions/sevakai/internal/pagination"
	"github.com/cloo-solutions/sevakai/internal/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultSubscriberSource tags signups from the website footer form
	DefaultSubscriberSource = "website"

	defaultListLimit = 50
	maxListLimit     = 200
)

// SubscriberStore persists newsletter subscribers.
type SubscriberStore interface {
	// Create inserts the subscriber. created is false when the email is already subscribed.
	Create(ctx context.Context, s *domain.Subscriber) (created bool, err error)
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*SubscriberPageResult, error)
}

type SubscriberPageResult struct {
	Items      []*domain.Subscriber
	NextCursor string
	HasMore    bool
}

// NewsletterService handles newsletter signups
type NewsletterService struct {
	store   SubscriberStore
	uuidGen UUIDGenerator
	logger  *zap.Logger
	now     func() time.Time
}

// NewNewsletterService creates a new NewsletterService instance
func NewNewsletterService(store SubscriberStore, logger *zap.Logger) *NewsletterService {
	return NewNewsletterServiceWithUUIDGen(store, logger, &DefaultUUIDGenerator{})
}

// NewNewsletterServiceWithUUIDGen creates a new NewsletterService with custom UUID generator (for testing)
func NewNewsletterServiceWithUUIDGen(store SubscriberStore, logger *zap.Logger, uuidGen UUIDGenerator) *NewsletterService {
	logger = logging.OrNop(logger)
	return &NewsletterService{
		store:   store,
		uuidGen: uuidGen,
		logger:  logger,
		now:     time.Now,
	}
}

type SubscribeInput struct {
	Email  string
	Source string
}

type SubscribeResult struct {
	Subscriber *domain.Subscriber
	Created    bool
}

type ListSubscribersInput struct {
	Cursor string
	Limit  int
}

type ListSubscribersOutput struct {
	Items   []*domain.Subscriber
	Cursor  string
	HasMore bool
}

// Subscribe adds an email to the newsletter. Subscribing twice is not an
// error: the existing subscriber is returned with Created false.
func (s *NewsletterService) Subscribe(ctx context.Context, input SubscribeInput) (*SubscribeResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "NewsletterService.Subscribe", telemetry.SpanAttributes{
		Operation: "subscribe",
	})
	defer span.End()

	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = DefaultSubscriberSource
	}

	sub := &domain.Subscriber{
		ID:        s.uuidGen.NewString(),
		Email:     email,
		Source:    source,
		CreatedAt: s.now().UTC(),
	}

	created, err := s.store.Create(ctx, sub)
	if err != nil {
		span.SetError(err)
		return nil, storeFailure("save subscriber", err)
	}

	if !created {
		existing, err := s.store.GetByEmail(ctx, email)
		if err != nil {
			return nil, storeFailure("load subscriber", err)
		}
		s.logger.Info("newsletter: already subscribed", zap.String("subscriber_id", existing.ID))
		return &SubscribeResult{Subscriber: existing, Created: false}, nil
	}

	span.SetTag("subscriber_id", sub.ID)
	s.logger.Info("newsletter: subscribed", zap.String("subscriber_id", sub.ID), zap.String("source", source))
	return &SubscribeResult{Subscriber: sub, Created: true}, nil
}

// List returns subscribers newest first
func (s *NewsletterService) List(ctx context.Context, input ListSubscribersInput) (*ListSubscribersOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "NewsletterService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.ErrInvalidPagination
	}

	page, err := s.store.ListWithCursor(ctx, cursor, limit)
	if err != nil {
		span.SetError(err)
		return nil, storeFailure("list subscribers", err)
	}

	return &ListSubscribersOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}

// storeFailure marks raw store errors as internal. Domain errors pass through.
func storeFailure(action string, err error) error {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to "+action, err)
}
