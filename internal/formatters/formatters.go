package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"mockmate/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Scorecard", &ScorecardTextFormatter{})
	registry.RegisterFormatter("markdown", "Scorecard", &ScorecardMarkdownFormatter{})
	registry.RegisterFormatter("text", "DigestOutput", &DigestTextFormatter{})
	registry.RegisterFormatter("markdown", "DigestOutput", &DigestMarkdownFormatter{})
	registry.RegisterFormatter("text", "SessionSnapshot", &SessionTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.Scorecard:
		return "Scorecard"
	case types.DigestOutput:
		return "DigestOutput"
	case types.SessionSnapshot:
		return "SessionSnapshot"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ScorecardTextFormatter handles text formatting for interview feedback
type ScorecardTextFormatter struct{}

func (stf *ScorecardTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.Scorecard)
	if !ok {
		return "", fmt.Errorf("expected Scorecard, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== INTERVIEW FEEDBACK ===\n\n")
	output.WriteString(fmt.Sprintf("Overall Score: %d/10\n\n", result.OverallScore))

	output.WriteString("=== DIMENSION SCORES ===\n")
	output.WriteString(fmt.Sprintf("Communication Clarity:  %d/10\n", result.DimensionScores.CommunicationClarity))
	output.WriteString(fmt.Sprintf("Confidence & Structure: %d/10\n", result.DimensionScores.ConfidenceStructure))
	output.WriteString(fmt.Sprintf("Technical Knowledge:    %d/10\n", result.DimensionScores.TechnicalKnowledge))
	output.WriteString(fmt.Sprintf("Role-Specific Skills:   %d/10\n\n", result.DimensionScores.RoleSpecificSkills))

	output.WriteString("=== STRENGTHS ===\n")
	for _, strength := range result.Strengths {
		output.WriteString(fmt.Sprintf("- %s\n", strength))
	}
	output.WriteString("\n")

	output.WriteString("=== AREAS TO IMPROVE ===\n")
	for _, area := range result.AreasToImprove {
		output.WriteString(fmt.Sprintf("- %s\n", area))
	}

	if len(result.ImprovedAnswers) > 0 {
		output.WriteString("\n=== IMPROVED ANSWERS ===\n\n")
		for i, improved := range result.ImprovedAnswers {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, improved.OriginalQuestion))
			output.WriteString("   Your answer: ")
			output.WriteString(improved.TheirAnswer)
			output.WriteString("\n")
			output.WriteString("   Stronger answer: ")
			output.WriteString(improved.ImprovedAnswer)
			output.WriteString("\n\n")
		}
	}

	return output.String(), nil
}

func (stf *ScorecardTextFormatter) SupportedType() string {
	return "Scorecard"
}

// ScorecardMarkdownFormatter handles markdown formatting for interview feedback
type ScorecardMarkdownFormatter struct{}

func (smf *ScorecardMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.Scorecard)
	if !ok {
		return "", fmt.Errorf("expected Scorecard, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Interview Feedback\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/10\n\n", result.OverallScore))

	output.WriteString("## Dimension Scores\n\n")
	output.WriteString(fmt.Sprintf("- **Communication Clarity:** %d/10\n", result.DimensionScores.CommunicationClarity))
	output.WriteString(fmt.Sprintf("- **Confidence & Structure:** %d/10\n", result.DimensionScores.ConfidenceStructure))
	output.WriteString(fmt.Sprintf("- **Technical Knowledge:** %d/10\n", result.DimensionScores.TechnicalKnowledge))
	output.WriteString(fmt.Sprintf("- **Role-Specific Skills:** %d/10\n\n", result.DimensionScores.RoleSpecificSkills))

	output.WriteString("## Strengths\n\n")
	for _, strength := range result.Strengths {
		output.WriteString(fmt.Sprintf("- %s\n", strength))
	}
	output.WriteString("\n")

	output.WriteString("## Areas to Improve\n\n")
	for _, area := range result.AreasToImprove {
		output.WriteString(fmt.Sprintf("- %s\n", area))
	}

	if len(result.ImprovedAnswers) > 0 {
		output.WriteString("\n## Improved Answers\n\n")
		for i, improved := range result.ImprovedAnswers {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, improved.OriginalQuestion))
			output.WriteString("**Your answer:** ")
			output.WriteString(improved.TheirAnswer)
			output.WriteString("\n\n")
			output.WriteString("**Stronger answer:** ")
			output.WriteString(improved.ImprovedAnswer)
			output.WriteString("\n\n")
		}
	}

	return output.String(), nil
}

func (smf *ScorecardMarkdownFormatter) SupportedType() string {
	return "Scorecard"
}

// DigestTextFormatter handles text formatting for resume digests
type DigestTextFormatter struct{}

func (dtf *DigestTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.DigestOutput)
	if !ok {
		return "", fmt.Errorf("expected DigestOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME DIGEST ===\n\n")
	output.WriteString(fmt.Sprintf("Target Role: %s\n\n", result.Role))
	output.WriteString("Summary:\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	return output.String(), nil
}

func (dtf *DigestTextFormatter) SupportedType() string {
	return "DigestOutput"
}

// DigestMarkdownFormatter handles markdown formatting for resume digests
type DigestMarkdownFormatter struct{}

func (dmf *DigestMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.DigestOutput)
	if !ok {
		return "", fmt.Errorf("expected DigestOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Digest\n\n")
	output.WriteString(fmt.Sprintf("**Target Role:** %s\n\n", result.Role))
	output.WriteString("## Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	return output.String(), nil
}

func (dmf *DigestMarkdownFormatter) SupportedType() string {
	return "DigestOutput"
}

// SessionTextFormatter handles text formatting for session snapshots
type SessionTextFormatter struct{}

func (sf *SessionTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.SessionSnapshot)
	if !ok {
		return "", fmt.Errorf("expected SessionSnapshot, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== INTERVIEW SESSION ===\n\n")
	output.WriteString(fmt.Sprintf("Session:    %s\n", result.ID))
	output.WriteString(fmt.Sprintf("Role:       %s (%s)\n", result.Role, result.ExperienceLevel))
	output.WriteString(fmt.Sprintf("Company:    %s\n", result.CompanyType))
	output.WriteString(fmt.Sprintf("State:      %s\n", result.State))
	output.WriteString(fmt.Sprintf("Questions:  %d\n\n", result.QuestionCount))

	for i, turn := range result.Turns {
		output.WriteString(fmt.Sprintf("Q%d: %s\n", i+1, turn.Question))
		output.WriteString(fmt.Sprintf("A%d: %s\n\n", i+1, turn.Answer))
	}

	if result.State != types.StateCompleted && result.CurrentQuestion != "" {
		output.WriteString("Pending question: ")
		output.WriteString(result.CurrentQuestion)
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (sf *SessionTextFormatter) SupportedType() string {
	return "SessionSnapshot"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
