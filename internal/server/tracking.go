package server

import (
	"context"

	"mockmate/internal/ai"
	"mockmate/internal/observability"
)

// generationTracker adapts the observability manager to the gateway's
// tracker hook so every generation call records duration and token metrics.
type generationTracker struct {
	om *observability.Manager
}

func (t *generationTracker) TrackGeneration(ctx context.Context, operation string, fn func(context.Context) (string, *ai.TokenUsage, error)) (string, *ai.TokenUsage, error) {
	var text string
	var usage *ai.TokenUsage
	err := t.om.TrackGeneration(ctx, operation, func(ctx context.Context) *observability.GenerationResult {
		var genErr error
		text, usage, genErr = fn(ctx)
		return &observability.GenerationResult{
			Error:      genErr,
			TokenUsage: (*observability.TokenUsage)(usage),
		}
	})
	return text, usage, err
}

func (s *Server) installGenerationTracker(om *observability.Manager) {
	tracker := &generationTracker{om: om}
	for _, svc := range []*ai.Service{s.Gateway.Question, s.Gateway.Feedback, s.Gateway.Resume} {
		if svc != nil {
			svc.SetTracker(tracker)
		}
	}
}
