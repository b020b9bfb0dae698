package notifications

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

// Handler handles notification HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a notifications handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /notifications (caller's unread notifications, newest first).
func (h *Handler) List(c *gin.Context) {
	user := middleware.MustUser(c)
	list, err := h.svc.ListUnread(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// MarkRead handles PUT /notifications/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	user := middleware.MustUser(c)
	if err := h.svc.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "is_read": true})
}
