package domain

import "time"

// ReplyOutcome classifies how a chatbot reply was produced
type ReplyOutcome string

const (
	// ReplyOutcomeAnswered means the model returned text
	ReplyOutcomeAnswered ReplyOutcome = "answered"
	// ReplyOutcomeEmpty means the model returned no content
	ReplyOutcomeEmpty ReplyOutcome = "empty"
	// ReplyOutcomeFailed means the model call errored
	ReplyOutcomeFailed ReplyOutcome = "failed"
	// ReplyOutcomeUnavailable means no model was configured
	ReplyOutcomeUnavailable ReplyOutcome = "unavailable"
)

// ChatEvent records one reply for observability. Message content is never stored.
type ChatEvent struct {
	ID            string
	SessionID     string
	Outcome       ReplyOutcome
	ContextTitles []string
	QueryLength   int
	DurationMs    int64
	Error         string
	CreatedAt     time.Time
}
