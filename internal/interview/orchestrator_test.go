package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"mockmate/internal/errors"
	"mockmate/internal/prompt"
	"mockmate/internal/resume"
	"mockmate/internal/types"
)

type countingMetrics struct {
	started   int
	answered  int
	completed int
	fallbacks int
}

func (m *countingMetrics) SessionStarted(context.Context, string)        { m.started++ }
func (m *countingMetrics) AnswerSubmitted(context.Context, string)       { m.answered++ }
func (m *countingMetrics) InterviewCompleted(context.Context, string, int) { m.completed++ }
func (m *countingMetrics) FeedbackFallback(context.Context, string)      { m.fallbacks++ }

func newTestOrchestrator(questions, feedback textGenerator, metrics Metrics) *Orchestrator {
	logger := errors.NewLogger(slog.LevelError)
	composer := prompt.NewComposer(prompt.NewCatalog(), "", "")
	digester := resume.NewDigester(questions, logger)
	synthesizer := NewSynthesizer(feedback, composer, logger)
	return NewOrchestrator(NewMemoryStore(), composer, questions, digester, synthesizer, metrics, logger)
}

func startSession(t *testing.T, o *Orchestrator) *types.StartInterviewOutput {
	t.Helper()
	out, err := o.Start(context.Background(), types.StartInterviewInput{
		Role:            "Software Engineer / SDE",
		ExperienceLevel: "mid",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return out
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("creates session with opening question", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"  What drew you to backend work?  "}}
		o := newTestOrchestrator(questions, &scriptedGenerator{}, nil)

		out := startSession(t, o)
		if out.SessionID == "" {
			t.Error("session ID should be assigned")
		}
		if out.Question != "What drew you to backend work?" {
			t.Errorf("question not trimmed: %q", out.Question)
		}

		snap, err := o.GetSession(out.SessionID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if snap.State != types.StateInProgress {
			t.Errorf("state = %q, want %q", snap.State, types.StateInProgress)
		}
		if snap.QuestionCount != 1 {
			t.Errorf("question count = %d, want 1", snap.QuestionCount)
		}
		if snap.CompanyType != "general" {
			t.Errorf("company type should default to general, got %q", snap.CompanyType)
		}
		if len(snap.Turns) != 0 {
			t.Errorf("new session should have no turns, got %d", len(snap.Turns))
		}
	})

	t.Run("missing role rejected", func(t *testing.T) {
		o := newTestOrchestrator(&scriptedGenerator{}, &scriptedGenerator{}, nil)
		_, err := o.Start(ctx, types.StartInterviewInput{ExperienceLevel: "mid"})
		if !errors.IsCode(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("expected %s, got %v", errors.ErrCodeInvalidRequest, err)
		}
	})

	t.Run("generation failure surfaces", func(t *testing.T) {
		o := newTestOrchestrator(&scriptedGenerator{err: fmt.Errorf("gateway down")}, &scriptedGenerator{}, nil)
		_, err := o.Start(ctx, types.StartInterviewInput{Role: "r", ExperienceLevel: "mid"})
		if err == nil {
			t.Fatal("expected error when opening question generation fails")
		}
	})

	t.Run("empty resume bytes skip digestion", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?"}}
		o := newTestOrchestrator(questions, &scriptedGenerator{}, nil)

		out, err := o.Start(ctx, types.StartInterviewInput{
			Role:            "Software Engineer / SDE",
			ExperienceLevel: "mid",
			ResumeData:      []byte{},
			ResumeFilename:  "resume.pdf",
		})
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		snap, _ := o.GetSession(out.SessionID)
		if snap.ResumeSummary != "" {
			t.Errorf("empty upload should leave no summary, got %q", snap.ResumeSummary)
		}
		if questions.calls != 1 {
			t.Errorf("expected only the opening question call, got %d", questions.calls)
		}
	})
}

func TestSubmitAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("advances the conversation", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?", "follow-up 1?", "follow-up 2?"}}
		metrics := &countingMetrics{}
		o := newTestOrchestrator(questions, &scriptedGenerator{}, metrics)
		out := startSession(t, o)

		first, err := o.SubmitAnswer(ctx, out.SessionID, "My first answer")
		if err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
		if first.Question != "follow-up 1?" {
			t.Errorf("question = %q", first.Question)
		}
		if first.QuestionNumber != 2 {
			t.Errorf("question number = %d, want 2", first.QuestionNumber)
		}

		second, err := o.SubmitAnswer(ctx, out.SessionID, "My second answer")
		if err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
		if second.QuestionNumber != 3 {
			t.Errorf("question number = %d, want 3", second.QuestionNumber)
		}

		snap, _ := o.GetSession(out.SessionID)
		if len(snap.Turns) != 2 {
			t.Fatalf("expected 2 turns, got %d", len(snap.Turns))
		}
		if snap.Turns[0].Question != "opening?" || snap.Turns[0].Answer != "My first answer" {
			t.Errorf("first turn mismatch: %+v", snap.Turns[0])
		}
		if snap.QuestionCount != 3 {
			t.Errorf("question count = %d, want 3", snap.QuestionCount)
		}
		if metrics.answered != 2 {
			t.Errorf("answered metric = %d, want 2", metrics.answered)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		o := newTestOrchestrator(&scriptedGenerator{}, &scriptedGenerator{}, nil)
		_, err := o.SubmitAnswer(ctx, "nope", "answer")
		if !errors.IsCode(err, errors.ErrCodeSessionNotFound) {
			t.Errorf("expected %s, got %v", errors.ErrCodeSessionNotFound, err)
		}
	})

	t.Run("empty answer rejected", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?"}}
		o := newTestOrchestrator(questions, &scriptedGenerator{}, nil)
		out := startSession(t, o)

		_, err := o.SubmitAnswer(ctx, out.SessionID, "   ")
		if !errors.IsCode(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("expected %s, got %v", errors.ErrCodeInvalidRequest, err)
		}
	})

	t.Run("completed session rejected", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?", "follow-up?"}}
		o := newTestOrchestrator(questions, &scriptedGenerator{responses: []string{validFeedbackJSON}}, nil)
		out := startSession(t, o)

		if _, err := o.SubmitAnswer(ctx, out.SessionID, "answer"); err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
		if _, err := o.End(ctx, out.SessionID); err != nil {
			t.Fatalf("End failed: %v", err)
		}

		_, err := o.SubmitAnswer(ctx, out.SessionID, "one more")
		if !errors.IsCode(err, errors.ErrCodeInterviewCompleted) {
			t.Errorf("expected %s, got %v", errors.ErrCodeInterviewCompleted, err)
		}
	})

	t.Run("generation failure leaves session intact", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?"}}
		o := newTestOrchestrator(questions, &scriptedGenerator{}, nil)
		out := startSession(t, o)

		questions.err = fmt.Errorf("gateway down")
		if _, err := o.SubmitAnswer(ctx, out.SessionID, "answer"); err == nil {
			t.Fatal("expected error")
		}

		snap, _ := o.GetSession(out.SessionID)
		if len(snap.Turns) != 0 {
			t.Errorf("failed submission should not record a turn, got %d", len(snap.Turns))
		}
		if snap.QuestionCount != 1 {
			t.Errorf("question count should stay 1, got %d", snap.QuestionCount)
		}
	})
}

func TestEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("synthesizes feedback and completes", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?", "follow-up?"}}
		feedback := &scriptedGenerator{responses: []string{validFeedbackJSON}}
		metrics := &countingMetrics{}
		o := newTestOrchestrator(questions, feedback, metrics)
		out := startSession(t, o)

		if _, err := o.SubmitAnswer(ctx, out.SessionID, "answer"); err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}

		scorecard, err := o.End(ctx, out.SessionID)
		if err != nil {
			t.Fatalf("End failed: %v", err)
		}
		if scorecard.OverallScore != 8 {
			t.Errorf("overall_score = %d, want 8", scorecard.OverallScore)
		}

		snap, _ := o.GetSession(out.SessionID)
		if snap.State != types.StateCompleted {
			t.Errorf("state = %q, want %q", snap.State, types.StateCompleted)
		}
		if snap.Feedback == nil || snap.Feedback.OverallScore != 8 {
			t.Error("feedback should be stored on the session")
		}
		if metrics.completed != 1 || metrics.fallbacks != 0 {
			t.Errorf("metrics completed=%d fallbacks=%d", metrics.completed, metrics.fallbacks)
		}
	})

	t.Run("empty transcript rejected without gateway call", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?"}}
		feedback := &scriptedGenerator{}
		o := newTestOrchestrator(questions, feedback, nil)
		out := startSession(t, o)

		_, err := o.End(ctx, out.SessionID)
		if !errors.IsCode(err, errors.ErrCodeEmptyTranscript) {
			t.Errorf("expected %s, got %v", errors.ErrCodeEmptyTranscript, err)
		}
		if feedback.calls != 0 {
			t.Errorf("empty transcript should not reach the gateway, got %d calls", feedback.calls)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		o := newTestOrchestrator(&scriptedGenerator{}, &scriptedGenerator{}, nil)
		_, err := o.End(ctx, "missing")
		if !errors.IsCode(err, errors.ErrCodeSessionNotFound) {
			t.Errorf("expected %s, got %v", errors.ErrCodeSessionNotFound, err)
		}
	})

	t.Run("fallback feedback counted", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?", "follow-up?"}}
		feedback := &scriptedGenerator{err: fmt.Errorf("gateway down")}
		metrics := &countingMetrics{}
		o := newTestOrchestrator(questions, feedback, metrics)
		out := startSession(t, o)

		if _, err := o.SubmitAnswer(ctx, out.SessionID, "answer"); err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
		scorecard, err := o.End(ctx, out.SessionID)
		if err != nil {
			t.Fatalf("End failed: %v", err)
		}
		if len(scorecard.Strengths) != 1 || !strings.Contains(scorecard.Strengths[0], "Completed the interview") {
			t.Errorf("unexpected fallback strengths: %v", scorecard.Strengths)
		}
		if metrics.fallbacks != 1 {
			t.Errorf("fallback metric = %d, want 1", metrics.fallbacks)
		}
	})

	t.Run("re-ending regenerates feedback", func(t *testing.T) {
		questions := &scriptedGenerator{responses: []string{"opening?", "follow-up?"}}
		feedback := &scriptedGenerator{responses: []string{validFeedbackJSON, validFeedbackJSON}}
		o := newTestOrchestrator(questions, feedback, nil)
		out := startSession(t, o)

		if _, err := o.SubmitAnswer(ctx, out.SessionID, "answer"); err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
		if _, err := o.End(ctx, out.SessionID); err != nil {
			t.Fatalf("first End failed: %v", err)
		}
		if _, err := o.End(ctx, out.SessionID); err != nil {
			t.Fatalf("second End failed: %v", err)
		}
		if feedback.calls != 2 {
			t.Errorf("expected feedback regeneration on re-end, got %d calls", feedback.calls)
		}
	})
}

func TestGetSessionUnknown(t *testing.T) {
	o := newTestOrchestrator(&scriptedGenerator{}, &scriptedGenerator{}, nil)
	_, err := o.GetSession("missing")
	if !errors.IsCode(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("expected %s, got %v", errors.ErrCodeSessionNotFound, err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	if store.Count() != 0 {
		t.Errorf("new store should be empty")
	}

	session := &Session{ID: "s1"}
	store.Put(session)
	if got, ok := store.Get("s1"); !ok || got != session {
		t.Error("stored session should be retrievable")
	}
	if store.Count() != 1 {
		t.Errorf("count = %d, want 1", store.Count())
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Error("deleted session should be gone")
	}
}
