package ai

import (
	"context"
	"fmt"

	"mockmate/internal/config"
	"mockmate/internal/errors"
)

// Tracker observes generation calls, typically to record duration and
// token metrics. A nil tracker is valid.
type Tracker interface {
	TrackGeneration(ctx context.Context, operation string, fn func(context.Context) (string, *TokenUsage, error)) (string, *TokenUsage, error)
}

// Service wraps a Generator for a single operation type
type Service struct {
	Provider  Generator // Exported for access from server package
	operation string
	tracker   Tracker
	logger    *errors.Logger
}

// NewService creates a generation service for a specific operation
func NewService(cfg config.ResolvedAIConfig, operation string, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing generation service",
		"provider", cfg.Provider,
		"operation", operation,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries)

	var provider Generator
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operation, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	return &Service{
		Provider:  provider,
		operation: operation,
		logger:    logger,
	}, nil
}

// SetTracker installs a generation tracker. Call during startup wiring,
// before the service handles requests.
func (s *Service) SetTracker(t Tracker) { s.tracker = t }

// Generate forwards to the underlying provider, routing through the
// tracker when one is installed
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (string, *TokenUsage, error) {
	if s.tracker != nil {
		return s.tracker.TrackGeneration(ctx, s.operation, func(ctx context.Context) (string, *TokenUsage, error) {
			return s.Provider.Generate(ctx, req)
		})
	}
	return s.Provider.Generate(ctx, req)
}

// GetModelInfo returns model information for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Gateway bundles the per-operation generation services
type Gateway struct {
	Question *Service
	Feedback *Service
	Resume   *Service
}

// NewGateway builds a gateway with one service per operation, each with its
// own resolved configuration
func NewGateway(cfg *config.Config, logger *errors.Logger) (*Gateway, error) {
	question, err := NewService(cfg.GetQuestionConfig(), "question", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create question service: %w", err)
	}
	feedback, err := NewService(cfg.GetFeedbackConfig(), "feedback", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback service: %w", err)
	}
	resume, err := NewService(cfg.GetResumeConfig(), "resume", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume service: %w", err)
	}

	return &Gateway{
		Question: question,
		Feedback: feedback,
		Resume:   resume,
	}, nil
}

// Stats returns circuit breaker statistics for every operation
func (g *Gateway) Stats() map[string]any {
	return map[string]any{
		"question": g.Question.Provider.GetCircuitBreakerStats(),
		"feedback": g.Feedback.Provider.GetCircuitBreakerStats(),
		"resume":   g.Resume.Provider.GetCircuitBreakerStats(),
	}
}

// Close releases all provider resources
func (g *Gateway) Close() error {
	for _, svc := range []*Service{g.Question, g.Feedback, g.Resume} {
		if svc != nil && svc.Provider != nil {
			if err := svc.Provider.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}
