package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/http/response"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
	"github.com/yungbote/wellness-backend/internal/services"
)

type TimeLogHandler struct {
	log     *logger.Logger
	timeLog services.TimeLogService
}

func NewTimeLogHandler(log *logger.Logger, timeLog services.TimeLogService) *TimeLogHandler {
	return &TimeLogHandler{log: log.With("handler", "TimeLogHandler"), timeLog: timeLog}
}

type parseRequest struct {
	TextLog *string `json:"text_log"`
	Date    string  `json:"date"`
}

// POST /api/time-log/parse
func (h *TimeLogHandler) Parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.TextLog == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("text_log is required"))
		return
	}

	entries, err := h.timeLog.Parse(c.Request.Context(), *req.TextLog, strings.TrimSpace(req.Date))
	if err != nil {
		_ = c.Error(err)
		response.RespondAPIError(c, err)
		return
	}
	if entries == nil {
		entries = []types.ParsedEntry{}
	}
	response.RespondOK(c, gin.H{
		"success": true,
		"entries": entries,
		"total":   len(entries),
	})
}
