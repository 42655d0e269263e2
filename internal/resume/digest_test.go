package resume

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"mockmate/internal/ai"
	"mockmate/internal/errors"
)

type stubGenerator struct {
	calls    int
	lastReq  ai.GenerateRequest
	response string
	err      error
}

func (s *stubGenerator) Generate(_ context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error) {
	s.calls++
	s.lastReq = req
	return s.response, nil, s.err
}

func newTestDigester(gen *stubGenerator) *Digester {
	return NewDigester(gen, errors.NewLogger(slog.LevelError))
}

func TestExtractText(t *testing.T) {
	ctx := context.Background()

	t.Run("plain text decodes without model call", func(t *testing.T) {
		gen := &stubGenerator{}
		d := newTestDigester(gen)

		got := d.ExtractText(ctx, []byte("Jane Doe\nEngineer at Acme"), "resume.txt")
		if got != "Jane Doe\nEngineer at Acme" {
			t.Errorf("unexpected text: %q", got)
		}
		if gen.calls != 0 {
			t.Errorf("plain text should not call the model, got %d calls", gen.calls)
		}
	})

	t.Run("pdf goes through the model with attachment", func(t *testing.T) {
		gen := &stubGenerator{response: "extracted resume text"}
		d := newTestDigester(gen)

		got := d.ExtractText(ctx, []byte("%PDF-1.4 fake"), "Resume.PDF")
		if got != "extracted resume text" {
			t.Errorf("unexpected text: %q", got)
		}
		if gen.calls != 1 {
			t.Fatalf("expected one model call, got %d", gen.calls)
		}
		if gen.lastReq.Attachment == nil || gen.lastReq.Attachment.MIMEType != "application/pdf" {
			t.Errorf("expected application/pdf attachment, got %+v", gen.lastReq.Attachment)
		}
		if !strings.Contains(gen.lastReq.Prompt, "Extract all text content") {
			t.Error("extraction prompt not sent")
		}
	})

	t.Run("pdf extraction failure yields empty string", func(t *testing.T) {
		gen := &stubGenerator{err: fmt.Errorf("model unavailable")}
		d := newTestDigester(gen)

		if got := d.ExtractText(ctx, []byte("%PDF"), "cv.pdf"); got != "" {
			t.Errorf("expected empty string on failure, got %q", got)
		}
	})

	t.Run("empty file yields empty string", func(t *testing.T) {
		gen := &stubGenerator{}
		d := newTestDigester(gen)

		if got := d.ExtractText(ctx, nil, "resume.pdf"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
		if gen.calls != 0 {
			t.Error("empty file should not call the model")
		}
	})

	t.Run("invalid utf8 yields empty string", func(t *testing.T) {
		gen := &stubGenerator{}
		d := newTestDigester(gen)

		if got := d.ExtractText(ctx, []byte{0xff, 0xfe, 0xfd}, "resume.docx"); got != "" {
			t.Errorf("expected empty string for binary non-pdf, got %q", got)
		}
	})
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()

	t.Run("empty text skips the model", func(t *testing.T) {
		gen := &stubGenerator{}
		d := newTestDigester(gen)

		if got := d.Summarize(ctx, "   \n  ", "Software Engineer / SDE"); got != "" {
			t.Errorf("expected empty summary, got %q", got)
		}
		if gen.calls != 0 {
			t.Errorf("empty text should not call the model, got %d calls", gen.calls)
		}
	})

	t.Run("summary returned trimmed", func(t *testing.T) {
		gen := &stubGenerator{response: "\n- Strong Go background\n"}
		d := newTestDigester(gen)

		got := d.Summarize(ctx, "resume text", "Software Engineer / SDE")
		if got != "- Strong Go background" {
			t.Errorf("unexpected summary: %q", got)
		}
		if !strings.Contains(gen.lastReq.Prompt, "Software Engineer / SDE interview") {
			t.Error("summary prompt should carry the role")
		}
	})

	t.Run("failure falls back to generic note", func(t *testing.T) {
		gen := &stubGenerator{err: fmt.Errorf("timeout")}
		d := newTestDigester(gen)

		got := d.Summarize(ctx, "resume text", "Data Analyst / Data Scientist")
		want := "Resume uploaded - candidate has experience relevant to Data Analyst / Data Scientist"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestDigest(t *testing.T) {
	t.Run("extraction failure produces no summary call", func(t *testing.T) {
		gen := &stubGenerator{err: fmt.Errorf("boom")}
		d := newTestDigester(gen)

		got := d.Digest(context.Background(), []byte("%PDF"), "cv.pdf", "Sales / Business Development")
		if got != "" {
			t.Errorf("expected empty digest, got %q", got)
		}
		if gen.calls != 1 {
			t.Errorf("expected only the extraction call, got %d", gen.calls)
		}
	})
}
