package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed chatbot.yaml
var defaultChatbotYAML []byte

// Chatbot holds the assistant's persona and canned replies.
type Chatbot struct {
	Name         string    `yaml:"name"`
	Greeting     string    `yaml:"greeting"`
	Persona      string    `yaml:"persona"`
	Refusal      string    `yaml:"refusal"`
	SupportPhone string    `yaml:"support_phone"`
	Fallbacks    Fallbacks `yaml:"fallbacks"`
}

// Fallbacks are shown instead of a model answer.
type Fallbacks struct {
	// Unavailable is used when no model is configured
	Unavailable string `yaml:"unavailable"`
	// Failed is used when the model call errors
	Failed string `yaml:"failed"`
	// Empty is used when the model returns no content
	Empty string `yaml:"empty"`
}

// DefaultChatbot returns the embedded persona.
func DefaultChatbot() (*Chatbot, error) {
	return ParseChatbot(defaultChatbotYAML)
}

// LoadChatbot reads a persona file, or the embedded default when path is empty.
func LoadChatbot(path string) (*Chatbot, error) {
	if path == "" {
		return DefaultChatbot()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chatbot file: %w", err)
	}
	return ParseChatbot(data)
}

// ParseChatbot decodes and validates persona YAML and expands the {{phone}}
// and {{refusal}} placeholders.
func ParseChatbot(data []byte) (*Chatbot, error) {
	var cb Chatbot
	if err := yaml.Unmarshal(data, &cb); err != nil {
		return nil, fmt.Errorf("failed to parse chatbot config: %w", err)
	}
	if err := cb.validate(); err != nil {
		return nil, err
	}

	r := strings.NewReplacer("{{phone}}", cb.SupportPhone, "{{refusal}}", cb.Refusal)
	cb.Persona = r.Replace(cb.Persona)
	cb.Fallbacks.Unavailable = r.Replace(cb.Fallbacks.Unavailable)
	cb.Fallbacks.Failed = r.Replace(cb.Fallbacks.Failed)
	cb.Fallbacks.Empty = r.Replace(cb.Fallbacks.Empty)

	return &cb, nil
}

func (c *Chatbot) validate() error {
	var missing []string
	if c.Greeting == "" {
		missing = append(missing, "greeting")
	}
	if c.Persona == "" {
		missing = append(missing, "persona")
	}
	if c.SupportPhone == "" {
		missing = append(missing, "support_phone")
	}
	if c.Fallbacks.Unavailable == "" {
		missing = append(missing, "fallbacks.unavailable")
	}
	if c.Fallbacks.Failed == "" {
		missing = append(missing, "fallbacks.failed")
	}
	if c.Fallbacks.Empty == "" {
		missing = append(missing, "fallbacks.empty")
	}
	if len(missing) > 0 {
		return errors.New("chatbot config missing fields: " + strings.Join(missing, ", "))
	}
	return nil
}
