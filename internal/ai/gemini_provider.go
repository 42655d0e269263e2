package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"mockmate/internal/config"
	"mockmate/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Generator for Google Gemini. One instance
// serves one operation type so timeout, temperature, and breaker policy
// stay independent.
type GeminiProvider struct {
	client         *genai.Client
	config         config.ResolvedAIConfig
	operation      string
	circuitBreaker *GenerationCircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *errors.Logger
}

// Ensure GeminiProvider implements Generator
var _ Generator = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini-backed generator for a specific operation
func NewGeminiProvider(cfg config.ResolvedAIConfig, operation string, logger *errors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, errors.NewGenerationError(errors.ErrCodeGenerationFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		operation:      operation,
		circuitBreaker: NewGenerationCircuitBreaker(operation, cfg.CircuitBreaker, logger),
		modelBreaker:   NewModelCircuitBreaker(operation, cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// Generate implements Generator. The configured per-operation timeout bounds
// the whole call including retries.
func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (string, *TokenUsage, error) {
	tracer := otel.Tracer("mockmate.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+g.operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.String("ai.operation", g.operation),
		attribute.Float64("ai.temperature", float64(g.config.Temperature)),
		attribute.Int("input.prompt_length", len(req.Prompt)),
		attribute.Bool("input.has_attachment", req.Attachment != nil),
	)

	callCtx := ctx
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	contents := g.buildContents(req)
	genaiConfig := &genai.GenerateContentConfig{}
	if g.config.Temperature > 0 {
		temp := g.config.Temperature
		genaiConfig.Temperature = &temp
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(callCtx, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, contents, genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", nil, errors.NewGenerationError(errors.ErrCodeGenerationTimeout,
				fmt.Sprintf("Generation timed out for %s after %s", g.operation, g.config.Timeout), err)
		}
		return "", nil, errors.NewGenerationError(errors.ErrCodeGenerationFailed,
			"Failed to generate content for "+g.operation, err)
	}

	text := result.Text()
	if text == "" {
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, errors.NewGenerationError(errors.ErrCodeGenerationFailed,
			"Model returned no text for "+g.operation, nil)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.text_length", len(text)),
	)
	return text, tokenUsage, nil
}

// buildContents assembles the request contents, attaching binary documents
// as inline parts ahead of the prompt text.
func (g *GeminiProvider) buildContents(req GenerateRequest) []*genai.Content {
	if req.Attachment == nil {
		return genai.Text(req.Prompt)
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Attachment.Data, req.Attachment.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"operation", g.operation,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry runs a generation call with exponential backoff and jitter
func (g *GeminiProvider) executeWithRetry(ctx context.Context, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying generation",
				"operation", g.operation,
				"attempt", attempt,
				"max_retries", g.config.MaxRetries,
				"error", lastErr.Error())

			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("Generation succeeded after retry",
					"operation", g.operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", g.operation,
				"error", err.Error())
			break
		}
	}

	if g.config.MaxRetries > 0 {
		g.logger.LogError(lastErr, "Generation failed after all retry attempts",
			"operation", g.operation,
			"total_attempts", g.config.MaxRetries+1)
		return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", g.operation, g.config.MaxRetries, lastErr)
	}
	return nil, lastErr
}

// isRetryableError reports whether an error should trigger a retry.
// Auth and invalid-input errors are final; transient network and
// throttling errors are not.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"generation": g.circuitBreaker.GetStats(),
		"model":      g.modelBreaker.GetModelStats(),
	}
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy()
	return stats
}

// Close implements Generator
func (g *GeminiProvider) Close() error {
	// The genai client holds no resources needing explicit release in
	// single-shot usage.
	return nil
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
