package server

import (
	"net/http"

	"github.com/cloo-solutions/sevakai/internal/api"
	"github.com/cloo-solutions/sevakai/internal/api/handlers"
	"github.com/cloo-solutions/sevakai/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies; chat messages and signups are small.
const MaxBodyBytes int64 = 64 * 1024

type RouterConfig struct {
	ChatHandler       *handlers.ChatHandler
	KnowledgeHandler  *handlers.KnowledgeHandler
	NewsletterHandler *handlers.NewsletterHandler
	AdminAPIKey       string
	ChatAvailable     bool
	Logger            *zap.Logger
}

type HealthResponse struct {
	Status string `json:"status"`
	Chat   string `json:"chat"`
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(MaxBodyBytes))

	chatStatus := "available"
	if !cfg.ChatAvailable {
		chatStatus = "unavailable"
	}
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, HealthResponse{Status: "ok", Chat: chatStatus})
	})

	r.Route("/chat/sessions", func(r chi.Router) {
		r.Post("/", cfg.ChatHandler.StartSession)
		r.Get("/{id}", cfg.ChatHandler.GetSession)
		r.Delete("/{id}", cfg.ChatHandler.EndSession)
		r.Post("/{id}/messages", cfg.ChatHandler.SendMessage)
	})

	r.Route("/knowledge", func(r chi.Router) {
		r.Get("/sections", cfg.KnowledgeHandler.ListSections)
		r.Post("/context", cfg.KnowledgeHandler.SelectContext)
	})

	r.Route("/newsletter/subscriptions", func(r chi.Router) {
		r.Post("/", cfg.NewsletterHandler.Subscribe)
		r.With(middleware.AdminKeyAuth(cfg.AdminAPIKey)).Get("/", cfg.NewsletterHandler.List)
	})

	return r
}
