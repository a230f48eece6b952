package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the model used for support replies
	DefaultChatModel = openai.GPT4oMini
	// DefaultMaxTokens bounds the length of a reply
	DefaultMaxTokens = 400
	// DefaultTemperature favours factual answers over creative ones
	DefaultTemperature float32 = 0.5
)

var (
	// ErrEmptyPrompt is returned when there is no user message
	ErrEmptyPrompt = errors.New("user message cannot be empty")
)

// ChatAPI is the subset of the OpenAI API the chatbot uses. *openai.Client satisfies it.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Message is one prior conversation turn
type Message struct {
	Role    string
	Content string
}

// ChatRequest describes a single completion
type ChatRequest struct {
	System      string
	History     []Message
	User        string
	MaxTokens   int
	Temperature float32
}

// Client wraps the OpenAI API client
type Client struct {
	api   ChatAPI
	model string
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
// BaseURL points the client at an OpenAI-compatible gateway.
func NewClientWithConfig(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewClientWithAPI(openai.NewClientWithConfig(clientCfg), cfg.Model)
}

// NewClientWithAPI builds a client around any ChatAPI implementation.
func NewClientWithAPI(api ChatAPI, model string) *Client {
	if model == "" {
		model = DefaultChatModel
	}
	return &Client{api: api, model: model}
}

// Model returns the chat model name
func (c *Client) Model() string {
	return c.model
}

// Complete sends the system prompt, prior turns and the new user message and
// returns the first choice. An empty string with a nil error means the API
// answered without content.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if req.User == "" {
		return "", ErrEmptyPrompt
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
