package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"mockmate/internal/errors"
	"mockmate/internal/observability"
	"mockmate/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createStartInterviewHandler wraps the start-interview handler with observability
func (s *Server) createStartInterviewHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("mockmate.api")
		ctx, span := tracer.Start(ctx, "api.start_interview")
		defer span.End()

		// Resume uploads arrive as multipart form data
		if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid multipart form", err.Error(), http.StatusBadRequest)
			return
		}

		input := types.StartInterviewInput{
			Role:            strings.TrimSpace(r.FormValue("role")),
			ExperienceLevel: strings.TrimSpace(r.FormValue("experience_level")),
			CompanyType:     strings.TrimSpace(r.FormValue("company_type")),
		}

		if file, header, err := r.FormFile("resume"); err == nil {
			defer func() {
				if cerr := file.Close(); cerr != nil {
					s.Logger.Warn("Failed to close resume upload", "error", cerr)
				}
			}()
			maxResume := s.AppConfig.App.MaxResumeSize
			data, readErr := io.ReadAll(io.LimitReader(file, maxResume+1))
			if readErr != nil {
				span.RecordError(readErr)
				writeErrorResponse(w, "Failed to read resume file", readErr.Error(), http.StatusBadRequest)
				return
			}
			if int64(len(data)) > maxResume {
				span.SetAttributes(attribute.String("error.type", "validation"))
				writeErrorResponse(w, "Resume file too large", "resume exceeds the configured size limit", http.StatusBadRequest)
				return
			}
			input.ResumeData = data
			input.ResumeFilename = header.Filename
		}

		span.SetAttributes(
			attribute.String("interview.role", input.Role),
			attribute.String("interview.experience_level", input.ExperienceLevel),
			attribute.Bool("interview.has_resume", len(input.ResumeData) > 0),
			attribute.String("operation", "start_interview"),
		)

		output, err := s.Orchestrator.Start(ctx, input)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
			s.writeAppError(w, err, "Failed to start interview")
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("interview.session_id", output.SessionID),
		)

		writeJSONResponse(w, output, s.Logger)
	}
}

// createSubmitAnswerHandler wraps the submit-answer handler with observability
func (s *Server) createSubmitAnswerHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("mockmate.api")
		ctx, span := tracer.Start(ctx, "api.submit_answer")
		defer span.End()

		var req SubmitAnswerRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.SessionID) == "" {
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing session ID", "session_id field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("interview.session_id", req.SessionID),
			attribute.Int("request.answer_length", len(req.Answer)),
			attribute.String("operation", "submit_answer"),
		)

		output, err := s.Orchestrator.SubmitAnswer(ctx, req.SessionID, req.Answer)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
			s.writeAppError(w, err, "Failed to submit answer")
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("interview.question_number", output.QuestionNumber),
		)

		writeJSONResponse(w, output, s.Logger)
	}
}

// EndInterviewResponse carries the scorecard plus the feedback page location
type EndInterviewResponse struct {
	Feedback    *types.Scorecard `json:"feedback"`
	RedirectURL string           `json:"redirect_url"`
}

// createEndInterviewHandler wraps the end-interview handler with observability
func (s *Server) createEndInterviewHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("mockmate.api")
		ctx, span := tracer.Start(ctx, "api.end_interview")
		defer span.End()

		var req EndInterviewRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.SessionID) == "" {
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing session ID", "session_id field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("interview.session_id", req.SessionID),
			attribute.String("operation", "end_interview"),
		)

		scorecard, err := s.Orchestrator.End(ctx, req.SessionID)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
			s.writeAppError(w, err, "Failed to end interview")
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("feedback.overall_score", scorecard.OverallScore),
		)

		writeJSONResponse(w, EndInterviewResponse{
			Feedback:    scorecard,
			RedirectURL: "/feedback/" + req.SessionID,
		}, s.Logger)
	}
}

// createGetSessionHandler wraps the session snapshot handler with observability
func (s *Server) createGetSessionHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("mockmate.api")
		_, span := tracer.Start(ctx, "api.get_session")
		defer span.End()

		sessionID := r.PathValue("id")
		span.SetAttributes(
			attribute.String("interview.session_id", sessionID),
			attribute.String("operation", "get_session"),
		)

		snapshot, err := s.Orchestrator.GetSession(sessionID)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
			s.writeAppError(w, err, "Failed to fetch session")
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		writeJSONResponse(w, snapshot, s.Logger)
	}
}

// writeAppError maps application errors onto HTTP status codes
func (s *Server) writeAppError(w http.ResponseWriter, err error, fallbackMessage string) {
	status := httpStatusForError(err)
	if status == http.StatusInternalServerError {
		s.Logger.LogError(err, fallbackMessage)
	}
	writeErrorResponse(w, fallbackMessage, err.Error(), status)
}

// httpStatusForError translates the error taxonomy into HTTP status codes.
// The domain packages never see HTTP; this is the only place the mapping lives.
func httpStatusForError(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONResponse writes a JSON payload with the standard content type
func writeJSONResponse(w http.ResponseWriter, v any, logger *errors.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.LogError(err, "Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
