package config

import "time"

// ResolvedAIConfig is an OperationAIConfig with all defaults applied,
// ready for the gateway to consume.
type ResolvedAIConfig struct {
	Provider       string
	Model          string
	Timeout        time.Duration
	APIKey         string
	MaxRetries     int
	Temperature    float32
	CircuitBreaker CircuitBreakerConfig
}

// applyOperationDefaults fills unset operation fields from global AI config
func (c *Config) applyOperationDefaults(op OperationAIConfig) ResolvedAIConfig {
	resolved := ResolvedAIConfig{
		Provider:       op.Provider,
		Model:          op.Model,
		APIKey:         op.APIKey,
		CircuitBreaker: op.CircuitBreaker,
	}

	if resolved.Provider == "" {
		resolved.Provider = c.AI.Provider
	}
	if resolved.Model == "" {
		resolved.Model = c.AI.Model
	}
	if resolved.APIKey == "" {
		resolved.APIKey = c.AI.APIKey
	}

	if op.Timeout != nil {
		resolved.Timeout = *op.Timeout
	} else {
		resolved.Timeout = c.AI.Timeout
	}

	if op.MaxRetries != nil {
		resolved.MaxRetries = *op.MaxRetries
	} else {
		resolved.MaxRetries = c.AI.MaxRetries
	}

	if op.Temperature != nil {
		resolved.Temperature = *op.Temperature
	} else {
		resolved.Temperature = c.AI.Temperature
	}

	return resolved
}

// GetQuestionConfig returns the resolved configuration for question generation
func (c *Config) GetQuestionConfig() ResolvedAIConfig {
	return c.applyOperationDefaults(c.AI.Question)
}

// GetFeedbackConfig returns the resolved configuration for feedback synthesis
func (c *Config) GetFeedbackConfig() ResolvedAIConfig {
	return c.applyOperationDefaults(c.AI.Feedback)
}

// GetResumeConfig returns the resolved configuration for resume digestion
func (c *Config) GetResumeConfig() ResolvedAIConfig {
	return c.applyOperationDefaults(c.AI.Resume)
}
