package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/sevakai/internal/config"
	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/knowledge"
	"github.com/cloo-solutions/sevakai/internal/logging"
	"github.com/cloo-solutions/sevakai/internal/openai"
	"github.com/cloo-solutions/sevakai/internal/telemetry"
	"go.uber.org/zap"
)

const (
	contextHeader = "--- RELEVANT CONTEXT ---"
	contextFooter = "--- END CONTEXT ---"
)

// Completer generates an assistant reply. *openai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req openai.ChatRequest) (string, error)
}

// ChatEventRecorder persists one record per reply.
type ChatEventRecorder interface {
	Record(ctx context.Context, event *domain.ChatEvent) error
}

// NoOpChatEventRecorder drops events. Used when no database is configured.
type NoOpChatEventRecorder struct{}

func (NoOpChatEventRecorder) Record(context.Context, *domain.ChatEvent) error { return nil }

// ChatOptions tunes the completion request.
type ChatOptions struct {
	HistoryWindow int
	MaxTokens     int
	Temperature   float32
	Timeout       time.Duration
}

// DefaultChatOptions mirrors the configuration defaults.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{
		HistoryWindow: 4,
		MaxTokens:     openai.DefaultMaxTokens,
		Temperature:   openai.DefaultTemperature,
		Timeout:       30 * time.Second,
	}
}

// Reply is what the visitor sees. Failures are folded into Text.
type Reply struct {
	Text          string              `json:"text"`
	Outcome       domain.ReplyOutcome `json:"outcome"`
	ContextTitles []string            `json:"context_titles"`
}

// ChatService answers visitor questions from the knowledge index.
type ChatService struct {
	index     *knowledge.Index
	bot       *config.Chatbot
	completer Completer
	events    ChatEventRecorder
	opts      ChatOptions
	uuidGen   UUIDGenerator
	logger    *zap.Logger
	now       func() time.Time
}

// NewChatService creates a ChatService. A nil completer puts the service in
// the unavailable state: every reply is the unavailable fallback and no
// request leaves the process.
func NewChatService(
	index *knowledge.Index,
	bot *config.Chatbot,
	completer Completer,
	events ChatEventRecorder,
	opts ChatOptions,
	logger *zap.Logger,
) *ChatService {
	if events == nil {
		events = NoOpChatEventRecorder{}
	}
	logger = logging.OrNop(logger)
	return &ChatService{
		index:     index,
		bot:       bot,
		completer: completer,
		events:    events,
		opts:      opts,
		uuidGen:   &DefaultUUIDGenerator{},
		logger:    logger,
		now:       time.Now,
	}
}

// Available reports whether a completer is configured.
func (s *ChatService) Available() bool {
	return s.completer != nil
}

// Greeting is the first assistant turn of every session.
func (s *ChatService) Greeting() string {
	return s.bot.Greeting
}

// Respond produces the assistant reply for userMessage given the prior turns.
// It never returns an error: failures become fallback text.
func (s *ChatService) Respond(ctx context.Context, history []domain.Turn, userMessage string) Reply {
	sessionID := SessionIDFromContext(ctx)
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Respond", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "respond",
	})
	defer span.End()

	start := s.now()
	selected := knowledge.Select(userMessage, s.index)
	reply := Reply{ContextTitles: knowledge.Titles(selected)}

	var callErr error
	switch {
	case s.completer == nil:
		reply.Text = s.bot.Fallbacks.Unavailable
		reply.Outcome = domain.ReplyOutcomeUnavailable
	default:
		text, err := s.complete(ctx, history, userMessage, knowledge.Render(selected))
		switch {
		case err != nil:
			callErr = err
			reply.Text = s.bot.Fallbacks.Failed
			reply.Outcome = domain.ReplyOutcomeFailed
			s.logger.Error("chat completion failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			telemetry.CaptureError(ctx, err, map[string]string{
				"session_id": sessionID,
				"outcome":    string(domain.ReplyOutcomeFailed),
			})
		// Whitespace-only output counts as empty too, so an assistant turn is
		// never blank.
		case strings.TrimSpace(text) == "":
			reply.Text = s.bot.Fallbacks.Empty
			reply.Outcome = domain.ReplyOutcomeEmpty
		default:
			reply.Text = text
			reply.Outcome = domain.ReplyOutcomeAnswered
		}
	}
	span.SetTag("outcome", string(reply.Outcome))

	s.record(ctx, sessionID, reply, len(userMessage), s.now().Sub(start), callErr)
	return reply
}

func (s *ChatService) complete(ctx context.Context, history []domain.Turn, userMessage, contextBundle string) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	window := domain.RecentTurns(history, s.opts.HistoryWindow)
	messages := make([]openai.Message, 0, len(window))
	for _, t := range window {
		messages = append(messages, openai.Message{Role: string(t.Role), Content: t.Content})
	}

	return s.completer.Complete(ctx, openai.ChatRequest{
		System:      BuildSystemPrompt(s.bot.Persona, contextBundle),
		History:     messages,
		User:        userMessage,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
}

func (s *ChatService) record(ctx context.Context, sessionID string, reply Reply, queryLen int, elapsed time.Duration, callErr error) {
	event := &domain.ChatEvent{
		ID:            s.uuidGen.NewString(),
		SessionID:     sessionID,
		Outcome:       reply.Outcome,
		ContextTitles: reply.ContextTitles,
		QueryLength:   queryLen,
		DurationMs:    elapsed.Milliseconds(),
		CreatedAt:     s.now().UTC(),
	}
	if callErr != nil {
		event.Error = callErr.Error()
	}

	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record chat event", zap.String("session_id", sessionID), zap.Error(err))
	}

	s.logger.Debug("chat reply",
		zap.String("session_id", sessionID),
		zap.String("outcome", string(reply.Outcome)),
		zap.Strings("context", reply.ContextTitles),
		zap.Int64("duration_ms", event.DurationMs))
}

// BuildSystemPrompt appends the selected knowledge to the persona instructions.
func BuildSystemPrompt(persona, contextBundle string) string {
	return fmt.Sprintf("%s\n\n%s\n%s\n%s", persona, contextHeader, contextBundle, contextFooter)
}

type sessionIDKey struct{}

// WithSessionID tags ctx with the chat session the call belongs to.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session tagged by WithSessionID, if any.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
