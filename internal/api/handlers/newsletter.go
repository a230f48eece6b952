package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/sevakai/internal/api"
	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/service"
)

const (
	subscribedMessage        = "You'll receive updates about new features and service areas"
	alreadySubscribedMessage = "This email is already subscribed to our newsletter"
)

type NewsletterService interface {
	Subscribe(ctx context.Context, input service.SubscribeInput) (*service.SubscribeResult, error)
	List(ctx context.Context, input service.ListSubscribersInput) (*service.ListSubscribersOutput, error)
}

type NewsletterHandler struct {
	svc NewsletterService
}

func NewNewsletterHandler(svc NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{svc: svc}
}

type SubscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

type SubscriberResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

type SubscribeResponse struct {
	Subscriber SubscriberResponse `json:"subscriber"`
	Created    bool               `json:"created"`
	Message    string             `json:"message"`
}

type ListSubscribersResponse struct {
	Items   []SubscriberResponse `json:"items"`
	Cursor  string               `json:"cursor,omitempty"`
	HasMore bool                 `json:"has_more"`
}

func subscriberToResponse(s *domain.Subscriber) SubscriberResponse {
	return SubscriberResponse{
		ID:        s.ID,
		Email:     s.Email,
		Source:    s.Source,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Subscribe(r.Context(), service.SubscribeInput{Email: req.Email, Source: req.Source})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	status := http.StatusCreated
	message := subscribedMessage
	if !result.Created {
		status = http.StatusOK
		message = alreadySubscribedMessage
	}

	api.Success(w, status, SubscribeResponse{
		Subscriber: subscriberToResponse(result.Subscriber),
		Created:    result.Created,
		Message:    message,
	})
}

func (h *NewsletterHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	out, err := h.svc.List(r.Context(), service.ListSubscribersInput{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]SubscriberResponse, 0, len(out.Items))
	for _, s := range out.Items {
		items = append(items, subscriberToResponse(s))
	}

	api.Success(w, http.StatusOK, ListSubscribersResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}
