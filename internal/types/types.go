package types

import "time"

// Turn is one question/answer exchange within an interview session.
// Turns are created once per answer submission and never edited.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DimensionScores holds per-dimension interview scores, each on a 1-10 scale.
type DimensionScores struct {
	CommunicationClarity int `json:"communication_clarity" validate:"min=1,max=10"`
	ConfidenceStructure  int `json:"confidence_structure" validate:"min=1,max=10"`
	TechnicalKnowledge   int `json:"technical_knowledge" validate:"min=1,max=10"`
	RoleSpecificSkills   int `json:"role_specific_skills" validate:"min=1,max=10"`
}

// ImprovedAnswer pairs a question the candidate was actually asked with their
// answer and a rewritten stronger version of it.
type ImprovedAnswer struct {
	OriginalQuestion string `json:"original_question"`
	TheirAnswer      string `json:"their_answer"`
	ImprovedAnswer   string `json:"improved_answer"`
}

// Scorecard is the structured feedback artifact produced at interview end.
// Field names match the JSON contract the model is instructed to honor.
type Scorecard struct {
	OverallScore    int              `json:"overall_score" validate:"min=1,max=10"`
	DimensionScores DimensionScores  `json:"dimension_scores"`
	Strengths       []string         `json:"strengths" validate:"min=1"`
	AreasToImprove  []string         `json:"areas_to_improve" validate:"min=1"`
	ImprovedAnswers []ImprovedAnswer `json:"improved_answers"`
}

// SessionState tracks where a session is in its lifecycle.
type SessionState string

const (
	StateCreated    SessionState = "created"
	StateInProgress SessionState = "in_progress"
	StateCompleted  SessionState = "completed"
)

// SessionSnapshot is a read-only copy of an interview session's state, safe
// to hand out across package boundaries.
type SessionSnapshot struct {
	ID              string       `json:"session_id"`
	Role            string       `json:"role"`
	ExperienceLevel string       `json:"experience_level"`
	CompanyType     string       `json:"company_type"`
	ResumeSummary   string       `json:"resume_summary,omitempty"`
	Turns           []Turn       `json:"conversation_history"`
	CurrentQuestion string       `json:"current_question"`
	QuestionCount   int          `json:"question_count"`
	Feedback        *Scorecard   `json:"feedback,omitempty"`
	State           SessionState `json:"state"`
	CreatedAt       time.Time    `json:"created_at"`
}

// StartInterviewInput carries everything needed to start a session.
type StartInterviewInput struct {
	Role            string
	ExperienceLevel string
	CompanyType     string
	ResumeData      []byte
	ResumeFilename  string
}

// StartInterviewOutput is the result of starting a session.
type StartInterviewOutput struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// SubmitAnswerOutput is the result of submitting an answer.
type SubmitAnswerOutput struct {
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
}

// DigestOutput is the result of digesting a resume outside an interview,
// as done by the digest CLI command.
type DigestOutput struct {
	Role    string `json:"role"`
	Summary string `json:"summary"`
}
