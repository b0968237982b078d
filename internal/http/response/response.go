package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/fitcoach-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func envelope(status int, code string, err error) ErrorEnvelope {
	msg := http.StatusText(status)
	if msg == "" {
		msg = "unknown error"
	}
	if err != nil {
		msg = err.Error()
	}
	return ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, envelope(status, code, err))
}

// RespondAPIError writes an *apierr.Error; anything else becomes a 500.
func RespondAPIError(c *gin.Context, err error) {
	if ae, ok := apierr.From(err); ok {
		env := envelope(ae.Status, ae.Code, ae.Err)
		env.Error.Field = ae.Field
		_ = c.Error(err)
		c.JSON(ae.Status, env)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal", err)
}

// Abort writes the error and stops the handler chain.
func Abort(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, envelope(status, code, err))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
