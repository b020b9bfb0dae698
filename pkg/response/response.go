// Package response writes the {success, data, error} envelope every endpoint returns.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindBadRequest:      http.StatusBadRequest,
	apperr.KindValidation:      http.StatusUnprocessableEntity,
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Fail sends an error envelope with the given status.
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Body{Success: false, Error: msg})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, msg string) { Fail(c, http.StatusBadRequest, msg) }

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, msg string) { Fail(c, http.StatusUnauthorized, msg) }

// Forbidden sends 403.
func Forbidden(c *gin.Context, msg string) { Fail(c, http.StatusForbidden, msg) }

// UnprocessableEntity sends 422.
func UnprocessableEntity(c *gin.Context, msg string) { Fail(c, http.StatusUnprocessableEntity, msg) }

// Error maps a service error to its status code and envelope.
// Unclassified errors are attached to the gin context for the request logger and sent as 500.
func Error(c *gin.Context, err error) {
	msg := apperr.Message(err)
	if status, ok := statusByKind[apperr.KindOf(err)]; ok {
		Fail(c, status, msg)
		return
	}
	_ = c.Error(err)
	Fail(c, http.StatusInternalServerError, msg)
}
