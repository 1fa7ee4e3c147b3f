package llm

import (
	"context"
	"encoding/json"
)

// Provider is the generation capability behind explanations, quiz items
// and class advice.
type Provider interface {
	// Generate runs one prompt. With Request.Schema set the reply Content
	// is JSON validated against it; otherwise Content is the reply text
	// encoded as a JSON string.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, after alias resolution.
	ModelID() string
}

// Request is one prompt. Every caller in this module sends a single user
// turn, built with SingleTurn.
type Request struct {
	System   string
	Messages []Message

	// Schema switches the backend to its native structured output mode.
	Schema *Schema

	// MaxTokens caps the reply. Zero means DefaultMaxTokens.
	MaxTokens int

	// Temperature in 0..1. Zero leaves the backend default.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name doubles as the OpenAI schema name
// and the validation cache key, so it must be unique per definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason is why a backend stopped generating, normalised across SDKs.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string // model that served the call, as the backend reports it
	StopReason StopReason
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Text returns the response as plain text. Content that is a JSON string
// literal is unquoted; anything else is returned verbatim.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var s string
	if len(r.Content) > 0 && r.Content[0] == '"' {
		if err := json.Unmarshal(r.Content, &s); err == nil {
			return s
		}
	}
	return string(r.Content)
}

// SingleTurn builds a Request holding one user message.
func SingleTurn(prompt string, maxTokens int, temperature float64) Request {
	return Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}
