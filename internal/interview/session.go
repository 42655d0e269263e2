// Package interview holds the session lifecycle: starting an interview,
// advancing it answer by answer, and closing it out with coached feedback.
package interview

import (
	"sync"
	"time"

	"mockmate/internal/types"
)

// Session is the live state of one mock interview. The embedded mutex
// serializes writes so concurrent submissions for the same session cannot
// interleave turns.
type Session struct {
	mu sync.Mutex

	ID              string
	Role            string
	ExperienceLevel string
	CompanyType     string
	ResumeSummary   string

	Turns           []types.Turn
	CurrentQuestion string
	QuestionCount   int
	Feedback        *types.Scorecard
	State           types.SessionState
	CreatedAt       time.Time
}

// Snapshot returns a copy-safe view of the session for API responses
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]types.Turn, len(s.Turns))
	copy(turns, s.Turns)

	return types.SessionSnapshot{
		ID:              s.ID,
		Role:            s.Role,
		ExperienceLevel: s.ExperienceLevel,
		CompanyType:     s.CompanyType,
		ResumeSummary:   s.ResumeSummary,
		Turns:           turns,
		CurrentQuestion: s.CurrentQuestion,
		QuestionCount:   s.QuestionCount,
		Feedback:        s.Feedback,
		State:           s.State,
		CreatedAt:       s.CreatedAt,
	}
}
