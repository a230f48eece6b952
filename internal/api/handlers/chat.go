package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cloo-solutions/sevakai/internal/api"
	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/service"
	"github.com/go-chi/chi/v5"
)

type SessionService interface {
	Start(ctx context.Context) *domain.Session
	Submit(ctx context.Context, id, text string) (*service.SubmitResult, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	End(ctx context.Context, id string) error
}

type ChatHandler struct {
	svc SessionService
}

func NewChatHandler(svc SessionService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type TurnResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type SessionResponse struct {
	ID           string         `json:"id"`
	State        string         `json:"state"`
	Turns        []TurnResponse `json:"turns"`
	CreatedAt    string         `json:"created_at"`
	LastActiveAt string         `json:"last_active_at"`
}

type ReplyResponse struct {
	Text          string   `json:"text"`
	Outcome       string   `json:"outcome"`
	ContextTitles []string `json:"context_titles"`
}

type MessageResponse struct {
	Reply   ReplyResponse   `json:"reply"`
	Session SessionResponse `json:"session"`
}

func sessionToResponse(s *domain.Session) SessionResponse {
	turns := make([]TurnResponse, 0, len(s.Turns))
	for _, t := range s.Turns {
		turns = append(turns, TurnResponse{
			Role:      string(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp.Format(time.RFC3339),
		})
	}
	return SessionResponse{
		ID:           s.ID,
		State:        string(s.State),
		Turns:        turns,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		LastActiveAt: s.LastActiveAt.Format(time.RFC3339),
	}
}

func (h *ChatHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	sess := h.svc.Start(r.Context())
	api.Success(w, http.StatusCreated, sessionToResponse(sess))
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, sessionToResponse(sess))
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Submit(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	titles := result.Reply.ContextTitles
	if titles == nil {
		titles = []string{}
	}
	api.Success(w, http.StatusOK, MessageResponse{
		Reply: ReplyResponse{
			Text:          result.Reply.Text,
			Outcome:       string(result.Reply.Outcome),
			ContextTitles: titles,
		},
		Session: sessionToResponse(result.Session),
	})
}

func (h *ChatHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}
	api.NoContent(w)
}
