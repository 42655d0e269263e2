package interview

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"mockmate/internal/ai"
	"mockmate/internal/errors"
	"mockmate/internal/prompt"
	"mockmate/internal/types"
)

const validFeedbackJSON = `{
	"overall_score": 8,
	"dimension_scores": {
		"communication_clarity": 8,
		"confidence_structure": 7,
		"technical_knowledge": 9,
		"role_specific_skills": 8
	},
	"strengths": ["Clear explanation of the caching design"],
	"areas_to_improve": ["Quantify the impact of your work"],
	"improved_answers": [
		{
			"original_question": "Describe a hard bug",
			"their_answer": "It was a race condition",
			"improved_answer": "Walk through detection, isolation, and the fix"
		}
	]
}`

type scriptedGenerator struct {
	calls     int
	responses []string
	err       error
}

func (s *scriptedGenerator) Generate(_ context.Context, _ ai.GenerateRequest) (string, *ai.TokenUsage, error) {
	s.calls++
	if s.err != nil {
		return "", nil, s.err
	}
	if len(s.responses) == 0 {
		return "", nil, fmt.Errorf("no scripted response left")
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil, nil
}

func testTurns() []types.Turn {
	return []types.Turn{
		{Question: "Tell me about yourself", Answer: "I build backend services"},
		{Question: "Describe a hard bug", Answer: "It was a race condition"},
	}
}

func newTestSynthesizer(gen textGenerator) *Synthesizer {
	logger := errors.NewLogger(slog.LevelError)
	composer := prompt.NewComposer(prompt.NewCatalog(), "", "")
	return NewSynthesizer(gen, composer, logger)
}

func TestSynthesizeValidResponse(t *testing.T) {
	s := newTestSynthesizer(&scriptedGenerator{responses: []string{validFeedbackJSON}})

	scorecard, fallback := s.Synthesize(context.Background(), "Software Engineer / SDE", "mid", testTurns(), "")
	if fallback {
		t.Fatal("valid response should not trigger the fallback")
	}
	if scorecard.OverallScore != 8 {
		t.Errorf("overall_score = %d, want 8", scorecard.OverallScore)
	}
	if scorecard.DimensionScores.TechnicalKnowledge != 9 {
		t.Errorf("technical_knowledge = %d, want 9", scorecard.DimensionScores.TechnicalKnowledge)
	}
	if len(scorecard.ImprovedAnswers) != 1 {
		t.Errorf("expected 1 improved answer, got %d", len(scorecard.ImprovedAnswers))
	}
}

func TestSynthesizeFencedResponse(t *testing.T) {
	fenced := "```json\n" + validFeedbackJSON + "\n```"
	s := newTestSynthesizer(&scriptedGenerator{responses: []string{fenced}})

	scorecard, fallback := s.Synthesize(context.Background(), "Software Engineer / SDE", "mid", testTurns(), "")
	if fallback {
		t.Fatal("fenced JSON should still parse")
	}
	if scorecard.OverallScore != 8 {
		t.Errorf("overall_score = %d, want 8", scorecard.OverallScore)
	}
}

func TestSynthesizeFallbacks(t *testing.T) {
	tests := []struct {
		name string
		gen  *scriptedGenerator
	}{
		{"generation error", &scriptedGenerator{err: fmt.Errorf("gateway down")}},
		{"invalid json", &scriptedGenerator{responses: []string{"I think they did great!"}}},
		{"out of range score", &scriptedGenerator{responses: []string{`{
			"overall_score": 14,
			"dimension_scores": {"communication_clarity": 7, "confidence_structure": 7, "technical_knowledge": 7, "role_specific_skills": 7},
			"strengths": ["x"], "areas_to_improve": ["y"], "improved_answers": []
		}`}}},
		{"missing strengths", &scriptedGenerator{responses: []string{`{
			"overall_score": 7,
			"dimension_scores": {"communication_clarity": 7, "confidence_structure": 7, "technical_knowledge": 7, "role_specific_skills": 7},
			"strengths": [], "areas_to_improve": ["y"], "improved_answers": []
		}`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSynthesizer(tt.gen)
			scorecard, fallback := s.Synthesize(context.Background(), "Software Engineer / SDE", "mid", testTurns(), "")
			if !fallback {
				t.Fatal("expected fallback scorecard")
			}
			if scorecard.OverallScore != 7 {
				t.Errorf("fallback overall_score = %d, want 7", scorecard.OverallScore)
			}
			ds := scorecard.DimensionScores
			for name, score := range map[string]int{
				"communication_clarity": ds.CommunicationClarity,
				"confidence_structure":  ds.ConfidenceStructure,
				"technical_knowledge":   ds.TechnicalKnowledge,
				"role_specific_skills":  ds.RoleSpecificSkills,
			} {
				if score != 7 {
					t.Errorf("fallback %s = %d, want 7", name, score)
				}
			}
			if len(scorecard.Strengths) != 1 || len(scorecard.AreasToImprove) != 1 {
				t.Errorf("fallback should carry exactly one strength and one improvement, got %d/%d",
					len(scorecard.Strengths), len(scorecard.AreasToImprove))
			}
			if scorecard.ImprovedAnswers == nil || len(scorecard.ImprovedAnswers) != 0 {
				t.Error("fallback improved_answers should be empty but not nil")
			}
		})
	}
}

func TestParseScorecardNormalizesNilImprovedAnswers(t *testing.T) {
	raw := `{
		"overall_score": 6,
		"dimension_scores": {"communication_clarity": 6, "confidence_structure": 6, "technical_knowledge": 6, "role_specific_skills": 6},
		"strengths": ["x"], "areas_to_improve": ["y"]
	}`
	scorecard, err := parseScorecard(raw)
	if err != nil {
		t.Fatalf("parseScorecard failed: %v", err)
	}
	if scorecard.ImprovedAnswers == nil {
		t.Error("improved_answers should be normalized to an empty slice")
	}
}
