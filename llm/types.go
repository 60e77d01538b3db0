package llm

import (
	"context"
	"errors"
	"fmt"
)

// Backend is the contract for generative text services. Implementations
// must be safe for concurrent use by multiple in-flight calls.
type Backend interface {
	// Generate sends one request and returns the complete response.
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request is one generation request.
type Request struct {
	// System is the system prompt (optional)
	System string

	// Prompt is the user content
	Prompt string

	// Model overrides the client's default model when non-empty
	Model string

	// Temperature for generation (0.0-1.0)
	Temperature float64

	// MaxTokens limits response length (0 uses the client default)
	MaxTokens int
}

// Response is the result of one generation call.
type Response struct {
	// Content is the text response
	Content string

	// Model that actually served the request
	Model string

	// Token counts
	InputTokens  int
	OutputTokens int

	// Latency in milliseconds
	LatencyMs int64
}

// UnavailableError marks a transient transport failure: timeout, network
// fault, rate limit or server overload. Safe to retry with identical input.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RefusalError marks an explicit policy refusal by the backend. Never
// retried.
type RefusalError struct {
	Reason string
}

func (e *RefusalError) Error() string {
	return "backend refused generation: " + e.Reason
}

// IsUnavailable reports whether err is a transient backend failure.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// IsRefusal reports whether err is an explicit backend refusal.
func IsRefusal(err error) bool {
	var re *RefusalError
	return errors.As(err, &re)
}
