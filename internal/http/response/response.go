package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/wellness-backend/internal/platform/apierr"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
)

type ErrorEnvelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Success:   false,
		Error:     msg,
		Code:      code,
		RequestID: ctxutil.RequestID(c.Request.Context()),
	})
}

// RespondAPIError writes err using its apierr status and code. Server-side
// failures get a generic message; details stay in the logs.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		RespondError(c, ae.Status, ae.Code, publicError(ae.Code))
		return
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

type publicError string

func (e publicError) Error() string {
	switch string(e) {
	case "network_error":
		return "the data store did not respond in time, please retry"
	case "store_unavailable":
		return "the data store is unavailable, please retry"
	default:
		return "internal server error"
	}
}
