package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/dipex/internal/blob"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/service"
)

// ExtractionService is satisfied by *service.ExtractionService.
type ExtractionService interface {
	Extract(ctx context.Context, doc *entity.RawDocument) (entity.ExtractionCandidate, error)
	ExtractAndSave(ctx context.Context, doc *entity.RawDocument, userID uuid.UUID) (service.Saved, error)
	Commit(ctx context.Context, c entity.ExtractionCandidate, userID uuid.UUID) (entity.Expense, entity.Payment, error)
	ListExpenses(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]entity.Expense, error)
	ListPayments(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]entity.Payment, error)
	ExportExpensesXLSX(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]byte, error)
}

// UploadField is the multipart field carrying the screenshot.
const UploadField = "file"

// ExtractionHandler serves the extraction and commit endpoints.
type ExtractionHandler struct {
	svc            ExtractionService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewExtractionHandler(logger *slog.Logger, svc ExtractionService, maxUploadBytes int64) *ExtractionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionHandler{svc: svc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Extract answers with a candidate for the uploaded image, or the simulated
// candidate when no file is sent. A malformed upload or an unreadable document
// reference is an error.
func (h *ExtractionHandler) Extract(c *gin.Context) {
	doc, err := h.upload(c)
	if err != nil {
		h.logger.Info("extract: rejected upload", "error", err)
		RespondAppError(c, err)
		return
	}
	candidate, err := h.svc.Extract(c.Request.Context(), &doc)
	if err != nil {
		h.logger.Warn("extract failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, candidate)
}

// ExtractAndSave extracts and commits the candidate for user_id (form field or query).
// The upload is read first so a body over the limit is reported as such.
func (h *ExtractionHandler) ExtractAndSave(c *gin.Context) {
	doc, err := h.upload(c)
	if err != nil {
		h.logger.Info("extract-and-save: rejected upload", "error", err)
		RespondAppError(c, err)
		return
	}

	raw := c.PostForm("user_id")
	if strings.TrimSpace(raw) == "" {
		raw = c.Query("user_id")
	}
	userID, err := parseUserID(raw)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	saved, err := h.svc.ExtractAndSave(c.Request.Context(), &doc, userID)
	if err != nil {
		h.logger.Warn("extract-and-save failed", "user_id", userID, "error", err)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, saved)
}

// Commit stores a client-supplied candidate.
func (h *ExtractionHandler) Commit(c *gin.Context) {
	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	candidate, err := req.Candidate.ToCandidate()
	if err != nil {
		RespondAppError(c, err)
		return
	}

	exp, pay, err := h.svc.Commit(c.Request.Context(), candidate, userID)
	if err != nil {
		h.logger.Warn("commit failed", "user_id", userID, "error", err)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, CommitResponse{ExpenseID: exp.ID.String(), PaymentID: pay.ID.String()})
}

func (h *ExtractionHandler) upload(c *gin.Context) (entity.RawDocument, error) {
	fh, err := c.FormFile(UploadField)
	switch {
	case err == nil:
		return blob.FromUpload(fh, h.maxUploadBytes)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return entity.RawDocument{}, nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return entity.RawDocument{}, common.ValidationFailed("upload exceeds the size limit", err)
		}
		return entity.RawDocument{}, common.ValidationFailed("malformed multipart body", err)
	}
}

func parseUserID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	v := common.NewValidator().Field("user_id", raw, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(raw)
}
