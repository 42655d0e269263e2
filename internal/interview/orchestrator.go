package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mockmate/internal/ai"
	"mockmate/internal/errors"
	"mockmate/internal/prompt"
	"mockmate/internal/resume"
	"mockmate/internal/types"
)

// Metrics receives orchestrator events. A nil Metrics is valid and
// records nothing.
type Metrics interface {
	SessionStarted(ctx context.Context, role string)
	AnswerSubmitted(ctx context.Context, role string)
	InterviewCompleted(ctx context.Context, role string, turns int)
	FeedbackFallback(ctx context.Context, role string)
}

// Orchestrator drives the interview lifecycle across the store, the
// prompt composer, and the generation gateway.
type Orchestrator struct {
	store       Store
	composer    *prompt.Composer
	questions   textGenerator
	digester    *resume.Digester
	synthesizer *Synthesizer
	metrics     Metrics
	logger      *errors.Logger
}

// NewOrchestrator wires an orchestrator from its collaborators. metrics
// may be nil.
func NewOrchestrator(
	store Store,
	composer *prompt.Composer,
	questions textGenerator,
	digester *resume.Digester,
	synthesizer *Synthesizer,
	metrics Metrics,
	logger *errors.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		composer:    composer,
		questions:   questions,
		digester:    digester,
		synthesizer: synthesizer,
		metrics:     metrics,
		logger:      logger,
	}
}

// Start creates a session, digests the resume if one was uploaded, and
// asks the opening question.
func (o *Orchestrator) Start(ctx context.Context, input types.StartInterviewInput) (*types.StartInterviewOutput, error) {
	if strings.TrimSpace(input.Role) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Role is required", nil)
	}
	if strings.TrimSpace(input.ExperienceLevel) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Experience level is required", nil)
	}
	companyType := input.CompanyType
	if companyType == "" {
		companyType = "general"
	}

	resumeSummary := ""
	if len(input.ResumeData) > 0 {
		resumeSummary = o.digester.Digest(ctx, input.ResumeData, input.ResumeFilename, input.Role)
	}

	openingPrompt := o.composer.Opening(input.Role, input.ExperienceLevel, companyType, resumeSummary)
	question, _, err := o.questions.Generate(ctx, ai.GenerateRequest{Prompt: openingPrompt})
	if err != nil {
		return nil, fmt.Errorf("failed to generate opening question: %w", err)
	}
	question = strings.TrimSpace(question)

	session := &Session{
		ID:              uuid.NewString(),
		Role:            input.Role,
		ExperienceLevel: input.ExperienceLevel,
		CompanyType:     companyType,
		ResumeSummary:   resumeSummary,
		Turns:           []types.Turn{},
		CurrentQuestion: question,
		QuestionCount:   1,
		State:           types.StateInProgress,
		CreatedAt:       time.Now().UTC(),
	}
	o.store.Put(session)

	if o.metrics != nil {
		o.metrics.SessionStarted(ctx, input.Role)
	}
	o.logger.Info("Interview started",
		"session_id", session.ID,
		"role", input.Role,
		"experience_level", input.ExperienceLevel,
		"company_type", companyType,
		"has_resume", resumeSummary != "")

	return &types.StartInterviewOutput{
		SessionID: session.ID,
		Question:  question,
	}, nil
}

// SubmitAnswer records the answer to the current question and asks the
// next one. The returned question number always equals the count of
// questions asked so far.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID, answer string) (*types.SubmitAnswerOutput, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Answer is required", nil)
	}

	session, ok := o.store.Get(sessionID)
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeSessionNotFound, "Session not found", nil).
			WithContext("session_id", sessionID)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State == types.StateCompleted {
		return nil, errors.NewConflictError(errors.ErrCodeInterviewCompleted,
			"Interview already completed", nil).WithContext("session_id", sessionID)
	}

	turns := append(session.Turns, types.Turn{
		Question: session.CurrentQuestion,
		Answer:   answer,
	})
	nextNumber := session.QuestionCount + 1

	followUpPrompt := o.composer.FollowUp(
		session.Role,
		session.ExperienceLevel,
		session.CompanyType,
		turns,
		nextNumber,
		session.ResumeSummary,
	)
	question, _, err := o.questions.Generate(ctx, ai.GenerateRequest{Prompt: followUpPrompt})
	if err != nil {
		// Session state is untouched so the candidate can retry the answer
		return nil, fmt.Errorf("failed to generate follow-up question: %w", err)
	}
	question = strings.TrimSpace(question)

	session.Turns = turns
	session.CurrentQuestion = question
	session.QuestionCount = nextNumber

	if o.metrics != nil {
		o.metrics.AnswerSubmitted(ctx, session.Role)
	}
	o.logger.Debug("Answer recorded",
		"session_id", sessionID,
		"question_number", nextNumber,
		"turns", len(session.Turns))

	return &types.SubmitAnswerOutput{
		Question:       question,
		QuestionNumber: nextNumber,
	}, nil
}

// End closes the interview and synthesizes feedback over the transcript.
// Ending an already-completed session regenerates its feedback.
func (o *Orchestrator) End(ctx context.Context, sessionID string) (*types.Scorecard, error) {
	session, ok := o.store.Get(sessionID)
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeSessionNotFound, "Session not found", nil).
			WithContext("session_id", sessionID)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if len(session.Turns) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyTranscript,
			"No answers to evaluate", nil).WithContext("session_id", sessionID)
	}

	scorecard, usedFallback := o.synthesizer.Synthesize(ctx,
		session.Role, session.ExperienceLevel, session.Turns, session.ResumeSummary)

	session.Feedback = scorecard
	session.State = types.StateCompleted

	if o.metrics != nil {
		o.metrics.InterviewCompleted(ctx, session.Role, len(session.Turns))
		if usedFallback {
			o.metrics.FeedbackFallback(ctx, session.Role)
		}
	}
	o.logger.Info("Interview completed",
		"session_id", sessionID,
		"turns", len(session.Turns),
		"overall_score", scorecard.OverallScore,
		"fallback_feedback", usedFallback)

	return scorecard, nil
}

// GetSession returns a snapshot of a session
func (o *Orchestrator) GetSession(sessionID string) (*types.SessionSnapshot, error) {
	session, ok := o.store.Get(sessionID)
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeSessionNotFound, "Session not found", nil).
			WithContext("session_id", sessionID)
	}
	snapshot := session.Snapshot()
	return &snapshot, nil
}

// ActiveSessions returns the number of stored sessions
func (o *Orchestrator) ActiveSessions() int {
	return o.store.Count()
}

// Catalog exposes the composer's focus catalog so callers can wire hot reload.
func (o *Orchestrator) Catalog() *prompt.Catalog {
	return o.composer.Catalog()
}

// SetMetrics installs the metrics sink. Call during startup wiring, before
// the orchestrator serves requests.
func (o *Orchestrator) SetMetrics(m Metrics) {
	o.metrics = m
}
