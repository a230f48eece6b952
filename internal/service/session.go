package service

import (
	"context"
	"sync"
	"time"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/logging"
	"github.com/cloo-solutions/sevakai/internal/telemetry"
	"go.uber.org/zap"
)

// Responder produces assistant replies. *ChatService satisfies it.
type Responder interface {
	Respond(ctx context.Context, history []domain.Turn, userMessage string) Reply
	Available() bool
	Greeting() string
}

// SubmitResult is the outcome of one visitor message.
type SubmitResult struct {
	Reply   Reply
	Session *domain.Session
}

// SessionService keeps open chat sessions in memory.
type SessionService struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	responder Responder
	ttl       time.Duration
	uuidGen   UUIDGenerator
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService creates a SessionService. Sessions idle longer than ttl
// are dropped by ExpireIdle; ttl <= 0 disables expiry.
func NewSessionService(responder Responder, ttl time.Duration, logger *zap.Logger) *SessionService {
	return NewSessionServiceWithUUIDGen(responder, ttl, logger, &DefaultUUIDGenerator{})
}

// NewSessionServiceWithUUIDGen creates a SessionService with custom UUID generator (for testing)
func NewSessionServiceWithUUIDGen(responder Responder, ttl time.Duration, logger *zap.Logger, uuidGen UUIDGenerator) *SessionService {
	return &SessionService{
		sessions:  make(map[string]*domain.Session),
		responder: responder,
		ttl:       ttl,
		uuidGen:   uuidGen,
		logger:    logging.OrNop(logger),
		now:       time.Now,
	}
}

// Start opens a session seeded with the greeting.
func (s *SessionService) Start(ctx context.Context) *domain.Session {
	state := domain.SessionStateIdle
	if !s.responder.Available() {
		state = domain.SessionStateDisabled
	}

	sess := domain.NewSession(s.uuidGen.NewString(), s.responder.Greeting(), state, s.now().UTC())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	snap := sess.Snapshot()
	s.mu.Unlock()

	telemetry.AddBreadcrumb(ctx, "chat", "session started")
	s.logger.Debug("session started", zap.String("session_id", sess.ID), zap.String("state", string(state)))
	return snap
}

// Submit records the visitor message and the assistant reply. Only one
// message per session may be in flight.
func (s *SessionService) Submit(ctx context.Context, id, text string) (*SubmitResult, error) {
	if id == "" {
		return nil, domain.ErrMissingSessionID
	}
	userTurn := domain.Turn{Role: domain.RoleUser, Content: text, Timestamp: s.now().UTC()}
	if err := domain.ValidateTurn(userTurn); err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	if sess.State == domain.SessionStateAwaitingResponse {
		s.mu.Unlock()
		return nil, domain.ErrSessionBusy
	}
	history := domain.RecentTurns(sess.Turns, len(sess.Turns))
	sess.Append(userTurn)
	disabled := sess.State == domain.SessionStateDisabled
	if !disabled {
		sess.State = domain.SessionStateAwaitingResponse
	}
	s.mu.Unlock()

	reply := s.responder.Respond(WithSessionID(ctx, id), history, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have been ended while the reply was generated
	sess, ok = s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess.Append(domain.Turn{Role: domain.RoleAssistant, Content: reply.Text, Timestamp: s.now().UTC()})
	if !disabled {
		sess.State = domain.SessionStateIdle
	}

	return &SubmitResult{Reply: reply, Session: sess.Snapshot()}, nil
}

// Get returns a snapshot of the session.
func (s *SessionService) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Snapshot(), nil
}

// End discards the session and its turns.
func (s *SessionService) End(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	telemetry.AddBreadcrumb(ctx, "chat", "session ended")
	return nil
}

// ExpireIdle drops sessions whose last activity is older than the TTL.
// Sessions waiting on a reply are kept. Returns the number dropped.
func (s *SessionService) ExpireIdle(_ context.Context, now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, sess := range s.sessions {
		if sess.State == domain.SessionStateAwaitingResponse {
			continue
		}
		if now.Sub(sess.LastActiveAt) > s.ttl {
			delete(s.sessions, id)
			expired++
		}
	}
	return expired
}

// Len returns the number of open sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
