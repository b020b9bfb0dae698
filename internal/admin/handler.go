// Package admin serves the moderation endpoints under /admin. Routes are mounted behind
// middleware.Authenticate and middleware.RequireAdmin.
package admin

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/internal/identity"
	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

// UserStore is the user persistence admins act on.
type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	UpdateFlags(ctx context.Context, id uuid.UUID, f identity.UserFlags) (*models.User, error)
}

// EventModerator is the event lifecycle operations admins use.
type EventModerator interface {
	Pending(ctx context.Context) ([]models.EventDetail, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Reject(ctx context.Context, id uuid.UUID) error
	ByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.EventDetail, error)
}

// Handler handles admin HTTP endpoints for users and events.
type Handler struct {
	users  UserStore
	events EventModerator
	logger *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(users UserStore, events EventModerator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, events: events, logger: logger}
}

func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

// PendingEvents handles GET /admin/events/pending.
func (h *Handler) PendingEvents(c *gin.Context) {
	list, err := h.events.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ApproveEvent handles PUT /admin/events/:id/approve.
func (h *Handler) ApproveEvent(c *gin.Context) {
	id, ok := pathID(c, "event")
	if !ok {
		return
	}
	ev, err := h.events.Approve(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.audit(c, "approve_event", id)
	response.OK(c, ev)
}

// RejectEvent handles PUT /admin/events/:id/reject. The event is deleted and its registrants notified.
func (h *Handler) RejectEvent(c *gin.Context) {
	id, ok := pathID(c, "event")
	if !ok {
		return
	}
	if err := h.events.Reject(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	h.audit(c, "reject_event", id)
	response.OK(c, gin.H{"message": "event rejected and deleted"})
}

// UserEvents handles GET /admin/events/user/:id.
func (h *Handler) UserEvents(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	list, err := h.events.ByOrganizer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// UpdateUser handles PUT /admin/users/:id {is_admin?, is_verified_organizer?, is_banned?}.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	var req identity.UserFlags
	if err := c.ShouldBindJSON(&req); err != nil {
		response.UnprocessableEntity(c, "invalid request: "+err.Error())
		return
	}
	if req.IsAdmin == nil && req.IsVerifiedOrganizer == nil && req.IsBanned == nil {
		response.UnprocessableEntity(c, "no flags to update")
		return
	}
	h.updateFlags(c, id, req, "update_user")
}

// VerifyOrganizer handles PUT /admin/users/:id/verify-organizer.
func (h *Handler) VerifyOrganizer(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	verified := true
	h.updateFlags(c, id, identity.UserFlags{IsVerifiedOrganizer: &verified}, "verify_organizer")
}

func (h *Handler) updateFlags(c *gin.Context, id uuid.UUID, f identity.UserFlags, action string) {
	u, err := h.users.UpdateFlags(c.Request.Context(), id, f)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.audit(c, action, id)
	response.OK(c, u)
}

func (h *Handler) audit(c *gin.Context, action string, target uuid.UUID) {
	fields := []zap.Field{zap.String("action", action), zap.String("target_id", target.String())}
	if u := middleware.CurrentUser(c); u != nil {
		fields = append(fields, zap.String("admin_email", u.Email))
	}
	h.logger.Info("admin action", fields...)
}
