package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/dipex/internal/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RecordsHandler serves read-only views of a user's stored records.
type RecordsHandler struct {
	svc    ExtractionService
	logger *slog.Logger
}

func NewRecordsHandler(logger *slog.Logger, svc ExtractionService) *RecordsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordsHandler{svc: svc, logger: logger}
}

func (h *RecordsHandler) ListExpenses(c *gin.Context) {
	userID, from, to, ok := h.scope(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListExpenses(c.Request.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("list expenses failed", "user_id", userID, "error", err)
		RespondAppError(c, err)
		return
	}
	if rows == nil {
		rows = []entity.Expense{}
	}
	RespondOK(c, rows)
}

func (h *RecordsHandler) ListPayments(c *gin.Context) {
	userID, from, to, ok := h.scope(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListPayments(c.Request.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("list payments failed", "user_id", userID, "error", err)
		RespondAppError(c, err)
		return
	}
	if rows == nil {
		rows = []entity.Payment{}
	}
	RespondOK(c, rows)
}

// ExportExpenses streams the user's workbook as an attachment.
func (h *RecordsHandler) ExportExpenses(c *gin.Context) {
	userID, from, to, ok := h.scope(c)
	if !ok {
		return
	}
	data, err := h.svc.ExportExpensesXLSX(c.Request.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("export.xlsx.failed", "user_id", userID, "error", err)
		RespondAppError(c, err)
		return
	}
	filename := fmt.Sprintf("expenses-%s.xlsx", userID.String()[:8])
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *RecordsHandler) scope(c *gin.Context) (uuid.UUID, *time.Time, *time.Time, bool) {
	userID, err := parseUserID(c.Param("user_id"))
	if err != nil {
		RespondAppError(c, err)
		return uuid.Nil, nil, nil, false
	}
	from, err := dateQuery(c, "from")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return uuid.Nil, nil, nil, false
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return uuid.Nil, nil, nil, false
	}
	return userID, from, to, true
}

func dateQuery(c *gin.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(entity.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}
