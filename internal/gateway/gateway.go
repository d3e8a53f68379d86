// Package gateway wraps the language model behind a small interface with
// typed failures, so callers never see provider-specific errors.
package gateway

import (
	"context"
	"errors"
)

// Role identifies the author of a conversation turn sent to the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "model"
)

// Turn is one prior conversation message.
type Turn struct {
	Role Role
	Text string
}

// InlineImage carries image bytes attached to the current query.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// GenerationConfig tunes model sampling.
type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// Request is one generation call.
type Request struct {
	Instructions string
	Turns        []Turn
	Query        string
	Image        *InlineImage
	Config       GenerationConfig
}

// Model generates a response for a request.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Typed gateway failures. Callers branch on these with errors.Is and show
// users the UserMessage mapping, never the underlying error text.
var (
	ErrAuth          = errors.New("gateway authentication failed")
	ErrQuota         = errors.New("gateway quota exhausted")
	ErrSafetyBlocked = errors.New("response blocked by safety filters")
	ErrTimeout       = errors.New("gateway request timed out")
	ErrNetwork       = errors.New("gateway network failure")
	ErrEmptyResponse = errors.New("gateway returned an empty response")
)

// UserMessage maps a gateway error to a user-facing sentence with no
// internal details.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrAuth):
		return "The assistant is temporarily unavailable. Please try again later."
	case errors.Is(err, ErrQuota):
		return "The assistant is handling too many requests right now. Please try again in a moment."
	case errors.Is(err, ErrSafetyBlocked):
		return "I can't help with that request. Please rephrase your question."
	case errors.Is(err, ErrTimeout):
		return "The assistant took too long to respond. Please try again."
	case errors.Is(err, ErrNetwork):
		return "The assistant could not be reached. Please check your connection and try again."
	case errors.Is(err, ErrEmptyResponse):
		return "The assistant did not produce a response. Please try rephrasing your question."
	default:
		return "Something went wrong. Please try again."
	}
}

// MockModel returns canned responses for tests. When Err is set Generate
// fails with it; otherwise Response is returned and the request recorded.
type MockModel struct {
	Response string
	Err      error
	Requests []Request
}

// Generate records the request and returns the canned response.
func (m *MockModel) Generate(ctx context.Context, req Request) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response == "" {
		return "", ErrEmptyResponse
	}
	return m.Response, nil
}

var _ Model = (*MockModel)(nil)
