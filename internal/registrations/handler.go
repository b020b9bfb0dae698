package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

func bindAttendees(c *gin.Context) (AttendeeRequest, bool) {
	var req AttendeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.UnprocessableEntity(c, "invalid request: "+err.Error())
		return req, false
	}
	return req, true
}

// Interest handles POST /events/:id/interest.
func (h *Handler) Interest(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	reg, err := h.svc.MarkInterest(c.Request.Context(), middleware.MustUser(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reg)
}

// Register handles POST /events/:id/register {number_of_attendees, attendees}.
func (h *Handler) Register(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	req, ok := bindAttendees(c)
	if !ok {
		return
	}
	reg, err := h.svc.Register(c.Request.Context(), middleware.MustUser(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reg)
}

// Confirm handles POST /events/:id/confirm-registration (interested -> registered).
func (h *Handler) Confirm(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	req, ok := bindAttendees(c)
	if !ok {
		return
	}
	reg, err := h.svc.Confirm(c.Request.Context(), middleware.MustUser(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reg)
}

// Cancel handles POST /events/:id/cancel-registration.
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	reg, err := h.svc.Cancel(c.Request.Context(), middleware.MustUser(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "registration cancelled", "registration": reg})
}

// Status handles GET /events/:id/registration-status.
func (h *Handler) Status(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	reg, err := h.svc.Status(c.Request.Context(), middleware.MustUser(c).ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if reg == nil {
		response.OK(c, gin.H{"status": "none", "registration": nil})
		return
	}
	response.OK(c, gin.H{"status": reg.Status, "registration": reg})
}

// Mine handles GET /my-registrations.
func (h *Handler) Mine(c *gin.Context) {
	list, err := h.svc.MyRegistrations(c.Request.Context(), middleware.MustUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// UserEvents returns a handler for GET /user/events/{registered,interested,signedup}.
func (h *Handler) UserEvents(listing Listing) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.svc.EventsFor(c.Request.Context(), middleware.MustUser(c).ID, listing)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, list)
	}
}
