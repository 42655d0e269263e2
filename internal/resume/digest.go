// Package resume turns uploaded resume files into a short summary the
// interviewer can probe. Digest failures never fail an interview; the
// session just proceeds with less context.
package resume

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"mockmate/internal/ai"
	"mockmate/internal/errors"
)

const extractionPrompt = `Extract all text content from this resume/CV.

Format the output to include:
- Contact information
- Work experience (with dates, roles, companies)
- Education
- Skills
- Projects
- Any other relevant sections

Keep the formatting clean and structured.`

const summaryPromptTemplate = `Analyze this resume for a %[1]s interview. Extract key points that an interviewer should probe:

Resume:
%[2]s

Provide a concise summary (150-200 words) covering:
1. Most relevant experiences for this %[1]s role
2. Key skills and technologies mentioned
3. Notable projects or achievements
4. Potential areas to explore deeper
5. Any gaps or points that need clarification

Format as a bullet-point summary that an interviewer can quickly reference.`

// textGenerator is the slice of the generation gateway the digester needs
type textGenerator interface {
	Generate(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error)
}

// Digester extracts and summarizes resume content
type Digester struct {
	generator textGenerator
	logger    *errors.Logger
}

// NewDigester creates a digester backed by the given generator
func NewDigester(generator textGenerator, logger *errors.Logger) *Digester {
	return &Digester{
		generator: generator,
		logger:    logger,
	}
}

// ExtractText extracts text from an uploaded resume. PDFs go through the
// model as an attachment; anything else is treated as UTF-8 text.
// Extraction failures yield an empty string, never an error.
func (d *Digester) ExtractText(ctx context.Context, data []byte, filename string) string {
	if len(data) == 0 {
		return ""
	}

	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		text, _, err := d.generator.Generate(ctx, ai.GenerateRequest{
			Prompt: extractionPrompt,
			Attachment: &ai.Attachment{
				MIMEType: "application/pdf",
				Data:     data,
			},
		})
		if err != nil {
			d.logger.Warn("Resume PDF extraction failed",
				"filename", filename,
				"size_bytes", len(data),
				"error", err.Error())
			return ""
		}
		return text
	}

	if !utf8.Valid(data) {
		d.logger.Warn("Resume file is not valid UTF-8 text", "filename", filename)
		return ""
	}
	return string(data)
}

// Summarize condenses resume text into interviewer-facing highlights.
// Empty input skips the model call entirely; generation failures fall back
// to a generic note so the interview still starts.
func (d *Digester) Summarize(ctx context.Context, resumeText, role string) string {
	if strings.TrimSpace(resumeText) == "" {
		return ""
	}

	summary, _, err := d.generator.Generate(ctx, ai.GenerateRequest{
		Prompt: fmt.Sprintf(summaryPromptTemplate, role, resumeText),
	})
	if err != nil {
		d.logger.Warn("Resume summarization failed, using generic fallback",
			"role", role,
			"error", err.Error())
		return fmt.Sprintf("Resume uploaded - candidate has experience relevant to %s", role)
	}
	return strings.TrimSpace(summary)
}

// Digest runs extraction then summarization for an uploaded file
func (d *Digester) Digest(ctx context.Context, data []byte, filename, role string) string {
	return d.Summarize(ctx, d.ExtractText(ctx, data, filename), role)
}
