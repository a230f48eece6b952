package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Turn is one message in a chat session.
type Turn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session is the server's view of a chat session.
type Session struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	Turns        []Turn `json:"turns"`
	CreatedAt    string `json:"created_at"`
	LastActiveAt string `json:"last_active_at"`
}

// Reply is the assistant's answer to one message.
type Reply struct {
	Text          string   `json:"text"`
	Outcome       string   `json:"outcome"`
	ContextTitles []string `json:"context_titles"`
}

// MessageResult is returned after sending a message.
type MessageResult struct {
	Reply   Reply   `json:"reply"`
	Session Session `json:"session"`
}

// Subscriber is a newsletter subscriber.
type Subscriber struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

// SubscribeResult is returned by the signup endpoint.
type SubscribeResult struct {
	Subscriber Subscriber `json:"subscriber"`
	Created    bool       `json:"created"`
	Message    string     `json:"message"`
}

// SubscriberPage is one page of the admin subscriber listing.
type SubscriberPage struct {
	Items   []Subscriber `json:"items"`
	Cursor  string       `json:"cursor,omitempty"`
	HasMore bool         `json:"has_more"`
}

// Health is the server status.
type Health struct {
	Status string `json:"status"`
	Chat   string `json:"chat"`
}

// Health reports server status and whether chat is configured.
func (c *APIClient) Health(ctx context.Context) (*Health, error) {
	return fetch[Health](ctx, c, http.MethodGet, "/health", nil)
}

// StartSession opens a chat session seeded with the assistant greeting.
func (c *APIClient) StartSession(ctx context.Context) (*Session, error) {
	s, err := fetch[Session](ctx, c, http.MethodPost, "/chat/sessions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return s, nil
}

func sessionPath(id string) string {
	return "/chat/sessions/" + url.PathEscape(id)
}

// SendMessage submits one user message and waits for the reply.
func (c *APIClient) SendMessage(ctx context.Context, sessionID, message string) (*MessageResult, error) {
	r, err := fetch[MessageResult](ctx, c, http.MethodPost, sessionPath(sessionID)+"/messages", map[string]string{"message": message})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return r, nil
}

// EndSession discards the session on the server.
func (c *APIClient) EndSession(ctx context.Context, sessionID string) error {
	if _, err := c.Delete(ctx, sessionPath(sessionID)); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Subscribe signs email up for the newsletter.
func (c *APIClient) Subscribe(ctx context.Context, email, source string) (*SubscribeResult, error) {
	return fetch[SubscribeResult](ctx, c, http.MethodPost, "/newsletter/subscriptions", map[string]string{"email": email, "source": source})
}

// ListSubscribers pages through subscribers, newest first. It needs the admin key.
func (c *APIClient) ListSubscribers(ctx context.Context, limit int, cursor string) (*SubscriberPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	path := "/newsletter/subscriptions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return fetch[SubscriberPage](ctx, c, http.MethodGet, path, nil)
}
