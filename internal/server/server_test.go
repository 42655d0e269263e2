package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mockmate/internal/ai"
	"mockmate/internal/config"
	"mockmate/internal/errors"
	"mockmate/internal/interview"
	"mockmate/internal/observability"
	"mockmate/internal/prompt"
	"mockmate/internal/resume"
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
	"strengths": ["Clear structure"],
	"areas_to_improve": ["Quantify impact"],
	"improved_answers": []
}`

// stubProvider satisfies ai.Generator with a canned response
type stubProvider struct {
	response string
	err      error
	calls    int
}

func (p *stubProvider) Generate(_ context.Context, _ ai.GenerateRequest) (string, *ai.TokenUsage, error) {
	p.calls++
	return p.response, nil, p.err
}

func (p *stubProvider) GetModelInfo(_ context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub-model", Available: true}
}

func (p *stubProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{"enabled": false}
}

func (p *stubProvider) Close() error { return nil }

var _ ai.Generator = (*stubProvider)(nil)

type testHarness struct {
	server   *Server
	mux      *http.ServeMux
	question *stubProvider
	feedback *stubProvider
}

func newTestHarness(t *testing.T, apiKeys []string) *testHarness {
	t.Helper()

	logger := errors.NewLogger(slog.LevelError)
	question := &stubProvider{response: "Tell me about a project you are proud of."}
	feedback := &stubProvider{response: validFeedbackJSON}
	digest := &stubProvider{response: "Experienced engineer."}

	catalog := prompt.NewCatalog()
	composer := prompt.NewComposer(catalog, "Alex", "Sarah")
	digester := resume.NewDigester(digest, logger)
	synthesizer := interview.NewSynthesizer(feedback, composer, logger)
	orchestrator := interview.NewOrchestrator(
		interview.NewMemoryStore(), composer, question, digester, synthesizer, nil, logger)

	gateway := &ai.Gateway{
		Question: &ai.Service{Provider: question},
		Feedback: &ai.Service{Provider: feedback},
		Resume:   &ai.Service{Provider: digest},
	}

	appCfg := &config.Config{}
	appCfg.App.MaxResumeSize = 2 * 1024 * 1024
	appCfg.Observability.HealthCheck.Timeout = 0

	srv := NewServer(appCfg, ServerConfig{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		APIKeys:        apiKeys,
		MaxRequestSize: 1 << 20,
	}, gateway, orchestrator, logger)

	om, err := observability.NewManager(config.ObservabilityConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	return &testHarness{
		server:   srv,
		mux:      srv.setupRoutes(om),
		question: question,
		feedback: feedback,
	}
}

func (h *testHarness) startInterview(t *testing.T) string {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("role", "Software Engineer / SDE"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := mw.WriteField("experience_level", "Mid-level"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/start-interview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("start-interview status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var out types.StartInterviewOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}
	if out.SessionID == "" {
		t.Fatal("expected a session ID")
	}
	return out.SessionID
}

func (h *testHarness) postJSON(path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func TestStartInterviewHandler(t *testing.T) {
	t.Run("returns session and opening question", func(t *testing.T) {
		h := newTestHarness(t, nil)
		sessionID := h.startInterview(t)

		req := httptest.NewRequest(http.MethodGet, "/api/session/"+sessionID, nil)
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("get session status = %d", rec.Code)
		}
		var snap types.SessionSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("failed to decode snapshot: %v", err)
		}
		if snap.State != types.StateInProgress {
			t.Errorf("state = %q, want %q", snap.State, types.StateInProgress)
		}
		if snap.CurrentQuestion != "Tell me about a project you are proud of." {
			t.Errorf("unexpected current question: %q", snap.CurrentQuestion)
		}
	})

	t.Run("missing role is rejected", func(t *testing.T) {
		h := newTestHarness(t, nil)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		if err := mw.WriteField("experience_level", "Senior"); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
		if err := mw.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/start-interview", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("resume upload reaches the digester", func(t *testing.T) {
		h := newTestHarness(t, nil)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		_ = mw.WriteField("role", "Data Analyst")
		_ = mw.WriteField("experience_level", "Junior")
		fw, err := mw.CreateFormFile("resume", "resume.txt")
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := fw.Write([]byte("Three years of SQL and dashboarding.")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := mw.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/start-interview", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestSubmitAnswerHandler(t *testing.T) {
	t.Run("advances the conversation", func(t *testing.T) {
		h := newTestHarness(t, nil)
		sessionID := h.startInterview(t)

		h.question.response = "How do you handle disagreements in code review?"
		rec := h.postJSON("/api/submit-answer", SubmitAnswerRequest{
			SessionID: sessionID,
			Answer:    "I shipped a payments service.",
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var out types.SubmitAnswerOutput
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if out.QuestionNumber != 2 {
			t.Errorf("question_number = %d, want 2", out.QuestionNumber)
		}
	})

	t.Run("unknown session yields 404", func(t *testing.T) {
		h := newTestHarness(t, nil)
		rec := h.postJSON("/api/submit-answer", SubmitAnswerRequest{
			SessionID: "no-such-session",
			Answer:    "hello",
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("empty answer yields 400", func(t *testing.T) {
		h := newTestHarness(t, nil)
		sessionID := h.startInterview(t)
		rec := h.postJSON("/api/submit-answer", SubmitAnswerRequest{
			SessionID: sessionID,
			Answer:    "   ",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("completed session yields 409", func(t *testing.T) {
		h := newTestHarness(t, nil)
		sessionID := h.startInterview(t)

		if rec := h.postJSON("/api/submit-answer", SubmitAnswerRequest{
			SessionID: sessionID,
			Answer:    "An answer.",
		}); rec.Code != http.StatusOK {
			t.Fatalf("submit status = %d", rec.Code)
		}
		if rec := h.postJSON("/api/end-interview", EndInterviewRequest{SessionID: sessionID}); rec.Code != http.StatusOK {
			t.Fatalf("end status = %d", rec.Code)
		}

		rec := h.postJSON("/api/submit-answer", SubmitAnswerRequest{
			SessionID: sessionID,
			Answer:    "One more.",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("non-JSON content type is rejected", func(t *testing.T) {
		h := newTestHarness(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/submit-answer", strings.NewReader("answer=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestEndInterviewHandler(t *testing.T) {
	t.Run("returns feedback and redirect", func(t *testing.T) {
		h := newTestHarness(t, nil)
		sessionID := h.startInterview(t)

		if rec := h.postJSON("/api/submit-answer", SubmitAnswerRequest{
			SessionID: sessionID,
			Answer:    "An answer.",
		}); rec.Code != http.StatusOK {
			t.Fatalf("submit status = %d", rec.Code)
		}

		rec := h.postJSON("/api/end-interview", EndInterviewRequest{SessionID: sessionID})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var out EndInterviewResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if out.Feedback == nil || out.Feedback.OverallScore != 8 {
			t.Errorf("unexpected feedback: %+v", out.Feedback)
		}
		if want := "/feedback/" + sessionID; out.RedirectURL != want {
			t.Errorf("redirect_url = %q, want %q", out.RedirectURL, want)
		}
	})

	t.Run("empty transcript yields 400", func(t *testing.T) {
		h := newTestHarness(t, nil)
		sessionID := h.startInterview(t)

		rec := h.postJSON("/api/end-interview", EndInterviewRequest{SessionID: sessionID})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown session yields 404", func(t *testing.T) {
		h := newTestHarness(t, nil)
		rec := h.postJSON("/api/end-interview", EndInterviewRequest{SessionID: "missing"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestHealthAndStatsHandlers(t *testing.T) {
	h := newTestHarness(t, nil)

	t.Run("health reports model availability", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode health response: %v", err)
		}
		if body["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", body["status"])
		}
		if _, ok := body["circuit_breakers"]; !ok {
			t.Error("expected circuit_breakers in health response")
		}
	})

	t.Run("stats reports active sessions", func(t *testing.T) {
		h.startInterview(t)

		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode stats response: %v", err)
		}
		sessions, ok := body["sessions"].(map[string]any)
		if !ok || sessions["active"].(float64) < 1 {
			t.Errorf("unexpected sessions stats: %v", body["sessions"])
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestHarness(t, []string{"secret-key-12345"})

	t.Run("missing key is rejected", func(t *testing.T) {
		rec := h.postJSON("/api/end-interview", EndInterviewRequest{SessionID: "x"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("invalid key is rejected", func(t *testing.T) {
		body, _ := json.Marshal(EndInterviewRequest{SessionID: "x"})
		req := httptest.NewRequest(http.MethodPost, "/api/end-interview", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("bearer token is accepted", func(t *testing.T) {
		body, _ := json.Marshal(EndInterviewRequest{SessionID: "x"})
		req := httptest.NewRequest(http.MethodPost, "/api/end-interview", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer secret-key-12345")
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)
		// Authenticated; the unknown session then yields 404
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	logger := errors.NewLogger(slog.LevelError)

	t.Run("burst then deny", func(t *testing.T) {
		limiter := NewRateLimiter(60, 2, logger)
		defer limiter.Close()

		if !limiter.Allow("ip:10.0.0.1") {
			t.Error("first request should be allowed")
		}
		if !limiter.Allow("ip:10.0.0.1") {
			t.Error("second request should be allowed within burst")
		}
		if limiter.Allow("ip:10.0.0.1") {
			t.Error("third request should exceed burst capacity")
		}
		// Separate keys get separate buckets
		if !limiter.Allow("ip:10.0.0.2") {
			t.Error("different key should have its own bucket")
		}
	})

	t.Run("stats", func(t *testing.T) {
		limiter := NewRateLimiter(120, 5, logger)
		defer limiter.Close()

		limiter.Allow("api:abc")
		stats := limiter.GetStats()
		if stats["active_limiters"].(int) != 1 {
			t.Errorf("active_limiters = %v, want 1", stats["active_limiters"])
		}
		if stats["burst_capacity"].(int) != 5 {
			t.Errorf("burst_capacity = %v, want 5", stats["burst_capacity"])
		}
	})
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{
			name:     "api key header",
			setup:    func(r *http.Request) { r.Header.Set("X-API-Key", "k1") },
			byAPIKey: true,
			want:     "api:k1",
		},
		{
			name:     "bearer token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer k2") },
			byAPIKey: true,
			want:     "api:k2",
		},
		{
			name:  "by ip",
			setup: func(r *http.Request) { r.RemoteAddr = "192.168.1.5:1234" },
			byIP:  true,
			want:  "ip:192.168.1.5",
		},
		{
			name:  "forwarded for wins",
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1") },
			byIP:  true,
			want:  "ip:203.0.113.7",
		},
		{
			name:  "neither configured",
			setup: func(r *http.Request) {},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			if got := getRateLimitKey(r, tt.byAPIKey, tt.byIP); got != tt.want {
				t.Errorf("getRateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("maskAPIKey(short) = %q", got)
	}
	if got := maskAPIKey("abcdefghijkl"); got != "abcdefgh****" {
		t.Errorf("maskAPIKey(long) = %q", got)
	}
}

func TestHTTPStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errors.NewNotFoundError(errors.ErrCodeSessionNotFound, "missing", nil), http.StatusNotFound},
		{"validation", errors.NewValidationError(errors.ErrCodeEmptyTranscript, "no answers", nil), http.StatusBadRequest},
		{"conflict", errors.NewConflictError(errors.ErrCodeInterviewCompleted, "done", nil), http.StatusConflict},
		{"generation", errors.NewGenerationError(errors.ErrCodeGenerationFailed, "boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := httpStatusForError(tt.err); got != tt.want {
				t.Errorf("httpStatusForError() = %d, want %d", got, tt.want)
			}
		})
	}
}
