package domain

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SessionState tracks where a chat session is in its request cycle
type SessionState string

const (
	SessionStateIdle             SessionState = "idle"
	SessionStateAwaitingResponse SessionState = "awaiting_response"
	SessionStateDisabled         SessionState = "disabled"
)

// Turn is a single message in a chat session
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Session is one open chat widget. Turns are append-only and never persisted.
type Session struct {
	ID           string
	Turns        []Turn
	State        SessionState
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// NewSession creates a session seeded with the assistant greeting
func NewSession(id, greeting string, state SessionState, now time.Time) *Session {
	return &Session{
		ID: id,
		Turns: []Turn{{
			Role:      RoleAssistant,
			Content:   greeting,
			Timestamp: now,
		}},
		State:        state,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Append adds a turn and bumps the activity timestamp
func (s *Session) Append(t Turn) {
	s.Turns = append(s.Turns, t)
	if t.Timestamp.After(s.LastActiveAt) {
		s.LastActiveAt = t.Timestamp
	}
}

// Snapshot returns a copy that is safe to hand out while the session keeps changing
func (s *Session) Snapshot() *Session {
	cp := *s
	cp.Turns = make([]Turn, len(s.Turns))
	copy(cp.Turns, s.Turns)
	return &cp
}

// RecentTurns returns at most n of the latest turns, oldest first.
func RecentTurns(turns []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(turns) <= n {
		out := make([]Turn, len(turns))
		copy(out, turns)
		return out
	}
	out := make([]Turn, n)
	copy(out, turns[len(turns)-n:])
	return out
}

// ValidateTurn rejects unknown roles and blank content.
func ValidateTurn(t Turn) error {
	switch t.Role {
	case RoleUser, RoleAssistant:
	default:
		return ErrInvalidRole
	}
	if strings.TrimSpace(t.Content) == "" {
		return ErrEmptyMessage
	}
	return nil
}
