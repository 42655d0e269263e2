package ai

import "context"

// Attachment is a binary document sent alongside a prompt, such as an
// uploaded resume PDF.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// GenerateRequest is a single text generation request.
type GenerateRequest struct {
	Prompt     string
	Attachment *Attachment
}

// TokenUsage represents token usage information from model responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the configured model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// Generator produces model text for a prompt. Implementations own their
// timeout, retry, and circuit breaker policy; callers just pass a context.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
	Close() error
}
