package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/careerpath-api/internal/api/shared"
	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/phrazzld/careerpath-api/internal/service"
	"github.com/phrazzld/careerpath-api/internal/task"
)

// SubmitAssessmentRequest is the body of POST /api/submit-assessment.
type SubmitAssessmentRequest struct {
	Answers      json.RawMessage `json:"answers"`
	StudentName  OptionalText    `json:"studentName" validate:"max=200"`
	Age          OptionalText    `json:"age" validate:"max=50"`
	AcademicInfo OptionalText    `json:"academicInfo" validate:"max=2000"`
	Interests    OptionalText    `json:"interests" validate:"max=2000"`
}

// CalculateScoresRequest is the body of POST /api/calculate-scores.
type CalculateScoresRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// SubmitAssessmentResponse acknowledges a queued report.
type SubmitAssessmentResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// CalculateScoresResponse carries normalized trait scores.
type CalculateScoresResponse struct {
	Message     string             `json:"message"`
	TraitScores domain.TraitScores `json:"trait_scores"`
}

// TaskStatusResponse reports the state of a report task.
type TaskStatusResponse struct {
	Status    task.TaskStatus `json:"status"`
	ReportURL string          `json:"report_url,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// AssessmentHandler handles assessment-related HTTP requests.
type AssessmentHandler struct {
	service   service.AssessmentService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(svc service.AssessmentService, logger *slog.Logger) *AssessmentHandler {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	v.RegisterCustomTypeFunc(optionalTextValue, OptionalText{})

	return &AssessmentHandler{
		service:   svc,
		validator: v,
		logger:    logger.With("component", "assessment_handler"),
	}
}

// SubmitAssessment handles POST /api/submit-assessment. It starts background
// report generation and answers 202 with the task id.
func (h *AssessmentHandler) SubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req SubmitAssessmentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	answers, err := parseAnswers(req.Answers)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	details := domain.StudentDetails{
		Name:         req.StudentName.Ptr(),
		Age:          req.Age.Ptr(),
		AcademicInfo: req.AcademicInfo.Ptr(),
		Interests:    req.Interests.Ptr(),
	}

	taskID, err := h.service.SubmitAssessment(r.Context(), answers, details)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start report generation")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitAssessmentResponse{
		Message: "Report generation started",
		TaskID:  taskID.String(),
	})
}

// CalculateScores handles POST /api/calculate-scores.
func (h *AssessmentHandler) CalculateScores(w http.ResponseWriter, r *http.Request) {
	var req CalculateScoresRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	answers, err := parseAnswers(req.Answers)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	scores, err := h.service.CalculateScores(r.Context(), answers)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to calculate skill scores")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CalculateScoresResponse{
		Message:     "Skill scores calculated successfully",
		TraitScores: scores,
	})
}

// GetTaskStatus handles GET /api/task-status/{taskID}.
func (h *AssessmentHandler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetTaskStatus(r.Context(), pathParam(r, "taskID"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read task status")
		return
	}

	resp := TaskStatusResponse{Status: rec.Status}
	switch rec.Status {
	case task.TaskStatusCompleted:
		resp.ReportURL = rec.ReportURL
	case task.TaskStatusError:
		resp.Error = rec.Error
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// DownloadReport handles GET /api/download-report/{filename} and serves the
// file as an attachment.
func (h *AssessmentHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	f, info, err := h.service.OpenReport(r.Context(), pathParam(r, "filename"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read report")
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			h.logger.WarnContext(r.Context(), "failed to close report file", "error", cerr)
		}
	}()

	name := info.Name()
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	http.ServeContent(w, r, name, info.ModTime(), f)
}

// respondDecodeError treats an empty body as a submission without answers.
func (h *AssessmentHandler) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrEmptyBody) {
		HandleAPIError(w, r, domain.ErrMissingAnswers, "")
		return
	}
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
}
