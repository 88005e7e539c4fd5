package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/http/response"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/bulk"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
	"github.com/yungbote/wellness-backend/internal/services"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"

	guardrailMessage = "Category daily goal limits exceeded"
)

type BulkHandler struct {
	log         *logger.Logger
	entries     services.BulkEntryService
	idempotency services.IdempotencyStore
}

// NewBulkHandler builds the handler; idempotency may be nil, in which case
// the Idempotency-Key header is ignored.
func NewBulkHandler(log *logger.Logger, entries services.BulkEntryService, idempotency services.IdempotencyStore) *BulkHandler {
	return &BulkHandler{
		log:         log.With("handler", "BulkHandler"),
		entries:     entries,
		idempotency: idempotency,
	}
}

type bulkRequest struct {
	Entries         []types.BulkEntry            `json:"entries"`
	ValidationRules *types.PartialValidationRule `json:"validation_rules"`
}

type bulkSuccessResponse struct {
	Success  bool              `json:"success"`
	Inserted int               `json:"inserted"`
	Total    int               `json:"total"`
	Warnings []bulk.Warning    `json:"warnings,omitempty"`
	Entries  []*types.Activity `json:"entries"`
}

type bulkValidationResponse struct {
	Success   bool              `json:"success"`
	Errors    []bulk.EntryError `json:"errors"`
	Processed int               `json:"processed"`
	Total     int               `json:"total"`
}

type bulkGuardrailResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
	Message string   `json:"message"`
}

type bulkInsertFailedResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Inserted  int    `json:"inserted"`
	Total     int    `json:"total"`
	RequestID string `json:"request_id,omitempty"`
}

// POST /api/activities/bulk
func (h *BulkHandler) Insert(c *gin.Context) {
	ctx := c.Request.Context()
	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
		return
	}

	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Entries == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("entries must be an array"))
		return
	}

	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	if h.idempotency == nil {
		key = ""
	}
	if key != "" {
		if err := services.ValidateIdempotencyKey(key); err != nil {
			response.RespondAPIError(c, err)
			return
		}
		stored, err := h.idempotency.Begin(ctx, userID, key)
		if err != nil {
			if !errors.Is(err, services.ErrSubmissionInFlight) {
				h.log.Error("idempotency begin failed", "user_id", userID, "error", err)
				err = services.MapStoreError(err)
			}
			response.RespondAPIError(c, err)
			return
		}
		if stored != nil {
			c.Header(headerReplayed, "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			return
		}
	}

	res, err := h.entries.Insert(ctx, req.Entries, req.ValidationRules)
	if err != nil {
		h.release(c, userID, key)
		_ = c.Error(err)
		response.RespondAPIError(c, err)
		return
	}

	status, body := h.render(c, res)
	raw, err := json.Marshal(body)
	if err != nil {
		h.release(c, userID, key)
		response.RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal server error"))
		return
	}

	if key != "" {
		if res.OK() || res.Committed > 0 {
			if err := h.idempotency.Complete(ctx, userID, key, services.StoredResponse{Status: status, Body: raw}); err != nil {
				h.log.Warn("idempotency complete failed", "user_id", userID, "error", err)
			}
		} else {
			h.release(c, userID, key)
		}
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}

func (h *BulkHandler) render(c *gin.Context, res *bulk.Result) (int, any) {
	switch res.Kind {
	case bulk.KindValidationFailed:
		return http.StatusBadRequest, bulkValidationResponse{
			Errors:    res.EntryErrors,
			Processed: res.Processed,
			Total:     res.Total,
		}
	case bulk.KindGuardrailFailed:
		return http.StatusBadRequest, bulkGuardrailResponse{
			Errors:  res.GuardrailErrors,
			Message: guardrailMessage,
		}
	case bulk.KindInsertFailed:
		_ = c.Error(res.Failure)
		h.log.Error("bulk insert partially committed", "inserted", res.Committed, "total", res.Total, "error", res.Failure)
		return http.StatusInternalServerError, bulkInsertFailedResponse{
			Error:     fmt.Sprintf("Failed to insert entries: %d of %d were saved", res.Committed, res.Total),
			Code:      "insert_failed",
			Inserted:  res.Committed,
			Total:     res.Total,
			RequestID: ctxutil.RequestID(c.Request.Context()),
		}
	default:
		rows := res.Rows
		if rows == nil {
			rows = []*types.Activity{}
		}
		return http.StatusOK, bulkSuccessResponse{
			Success:  true,
			Inserted: res.Committed,
			Total:    res.Total,
			Warnings: res.Warnings,
			Entries:  rows,
		}
	}
}

func (h *BulkHandler) release(c *gin.Context, userID uuid.UUID, key string) {
	if key == "" {
		return
	}
	if err := h.idempotency.Release(c.Request.Context(), userID, key); err != nil {
		h.log.Warn("idempotency release failed", "user_id", userID, "error", err)
	}
}
