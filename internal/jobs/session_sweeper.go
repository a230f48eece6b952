package jobs

import (
	"context"
	"time"

	"github.com/cloo-solutions/sevakai/internal/logging"
	"go.uber.org/zap"
)

// SessionExpirer drops idle chat sessions. *service.SessionService satisfies it.
type SessionExpirer interface {
	ExpireIdle(ctx context.Context, now time.Time) int
}

// SessionSweeper is the Task that expires idle chat sessions.
type SessionSweeper struct {
	sessions SessionExpirer
	logger   *zap.Logger
	now      func() time.Time
}

func NewSessionSweeper(sessions SessionExpirer, logger *zap.Logger) *SessionSweeper {
	logger = logging.OrNop(logger)
	return &SessionSweeper{
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Run expires every session idle past its TTL.
func (s *SessionSweeper) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if n := s.sessions.ExpireIdle(ctx, s.now().UTC()); n > 0 {
		s.logger.Info("expired idle chat sessions", zap.Int("count", n))
	}
	return nil
}
