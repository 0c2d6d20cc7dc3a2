package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/sadskatr/patent-database/internal/pkg/errors"
)

// Failure is the error envelope every JSON endpoint shares
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// OK writes data with status 200
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error writes a failure envelope with the given status
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Failure{Success: false, Error: message})
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, message)
}

// InternalError 500
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// HandleError maps err to its HTTP status and writes the failure envelope.
// Errors that are not AppErrors become 500s.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	code := apperrors.ExtractCode(err)
	Error(c, apperrors.GetHTTPStatus(code), apperrors.UserMessage(err))
}

// ErrorWithCode writes the failure envelope for code
func ErrorWithCode(c *gin.Context, code int, details ...string) {
	Error(c, apperrors.GetHTTPStatus(code), apperrors.FormatError(code, details...))
}
