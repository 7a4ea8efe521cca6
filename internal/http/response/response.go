package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

const internalMessage = "internal server error"

// RespondError writes err as the error envelope. Anything that is not an *apierr.Error,
// and every 5xx, is reported with a generic message.
func RespondError(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	code := apierr.CodeUpstream
	msg := internalMessage
	if ae, ok := apierr.As(err); ok {
		if ae.Code != "" {
			code = ae.Code
		}
		if status < http.StatusInternalServerError && ae.Err != nil {
			msg = ae.Err.Error()
		}
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondSuccess(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// BadRequest reports a malformed body.
func BadRequest(c *gin.Context, msg string) {
	RespondError(c, apierr.Validation(msg))
}
