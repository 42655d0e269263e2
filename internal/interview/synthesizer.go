package interview

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"mockmate/internal/ai"
	"mockmate/internal/errors"
	"mockmate/internal/prompt"
	"mockmate/internal/types"
)

// textGenerator is the slice of the generation gateway this package needs
type textGenerator interface {
	Generate(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error)
}

// Synthesizer turns a completed transcript into a validated scorecard.
// The model contract is JSON; anything that fails to parse or validate
// degrades to a neutral scorecard rather than failing the interview.
type Synthesizer struct {
	generator textGenerator
	composer  *prompt.Composer
	validate  *validator.Validate
	logger    *errors.Logger
}

// NewSynthesizer creates a feedback synthesizer
func NewSynthesizer(generator textGenerator, composer *prompt.Composer, logger *errors.Logger) *Synthesizer {
	return &Synthesizer{
		generator: generator,
		composer:  composer,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Synthesize generates coached feedback for a transcript. The returned
// bool reports whether the neutral fallback was used.
func (s *Synthesizer) Synthesize(ctx context.Context, role, experienceLevel string, turns []types.Turn, resumeSummary string) (*types.Scorecard, bool) {
	promptText := s.composer.Feedback(role, experienceLevel, turns, resumeSummary)

	raw, _, err := s.generator.Generate(ctx, ai.GenerateRequest{Prompt: promptText})
	if err != nil {
		s.logger.Warn("Feedback generation failed, using fallback scorecard",
			"role", role,
			"turns", len(turns),
			"error", err.Error())
		return fallbackScorecard(), true
	}

	scorecard, err := parseScorecard(raw)
	if err != nil {
		s.logger.Warn("Feedback response did not match the scorecard contract, using fallback",
			"role", role,
			"response_length", len(raw),
			"error", err.Error())
		return fallbackScorecard(), true
	}

	if err := s.validate.Struct(scorecard); err != nil {
		s.logger.Warn("Feedback scorecard failed validation, using fallback",
			"role", role,
			"error", err.Error())
		return fallbackScorecard(), true
	}

	return scorecard, false
}

// parseScorecard strips markdown fencing and decodes the scorecard JSON
func parseScorecard(raw string) (*types.Scorecard, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var scorecard types.Scorecard
	if err := json.Unmarshal([]byte(text), &scorecard); err != nil {
		return nil, errors.NewGenerationError(errors.ErrCodeFeedbackParseFailed,
			"Failed to parse feedback response", err)
	}

	if scorecard.ImprovedAnswers == nil {
		scorecard.ImprovedAnswers = []types.ImprovedAnswer{}
	}
	return &scorecard, nil
}

// fallbackScorecard is returned when feedback generation or parsing fails.
// Scores are neutral so a gateway outage never reads as a bad interview.
func fallbackScorecard() *types.Scorecard {
	return &types.Scorecard{
		OverallScore: 7,
		DimensionScores: types.DimensionScores{
			CommunicationClarity: 7,
			ConfidenceStructure:  7,
			TechnicalKnowledge:   7,
			RoleSpecificSkills:   7,
		},
		Strengths: []string{
			"Completed the interview and provided thoughtful responses",
		},
		AreasToImprove: []string{
			"Unable to generate detailed feedback - please try again",
		},
		ImprovedAnswers: []types.ImprovedAnswer{},
	}
}
