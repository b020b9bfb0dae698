package identity

import (
	"github.com/gin-gonic/gin"

	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

// Handler serves the caller's own user record.
type Handler struct{}

// NewHandler creates an identity handler.
func NewHandler() *Handler { return &Handler{} }

// Me handles GET /users/me.
func (h *Handler) Me(c *gin.Context) {
	response.OK(c, middleware.MustUser(c))
}
