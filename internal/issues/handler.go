package issues

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/form"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

// Handler handles issue HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an issues handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func issueID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return uuid.Nil, false
	}
	return id, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create handles POST /issues (multipart form).
func (h *Handler) Create(c *gin.Context) {
	in := Input{
		Title:       deref(form.String(c, "title")),
		Description: deref(form.String(c, "description")),
		Location:    deref(form.String(c, "location")),
		Category:    deref(form.String(c, "category")),
	}
	var err error
	if in.Latitude, err = form.Float(c, "latitude"); err != nil {
		response.Error(c, err)
		return
	}
	if in.Longitude, err = form.Float(c, "longitude"); err != nil {
		response.Error(c, err)
		return
	}
	img, done, err := form.Image(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer done()
	in.Image = img

	issue, err := h.svc.Create(c.Request.Context(), middleware.MustUser(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, issue)
}

// List handles GET /issues?category&status&approved_only (optional auth).
func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Category:     c.Query("category"),
		Status:       models.IssueStatus(c.Query("status")),
		ApprovedOnly: true,
	}
	if v := c.Query("approved_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.UnprocessableEntity(c, "approved_only must be a boolean")
			return
		}
		f.ApprovedOnly = b
	}
	list, err := h.svc.List(c.Request.Context(), middleware.CurrentUser(c), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /issues/:id (optional auth).
func (h *Handler) Get(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	issue, err := h.svc.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, issue)
}

// Vote handles POST /issues/:id/vote.
func (h *Handler) Vote(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	n, err := h.svc.Vote(c.Request.Context(), middleware.MustUser(c).ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "vote recorded", "votes_count": n})
}

// Unvote handles DELETE /issues/:id/vote.
func (h *Handler) Unvote(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	n, err := h.svc.Unvote(c.Request.Context(), middleware.MustUser(c).ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "vote removed", "votes_count": n})
}

// Pending handles GET /admin/issues/pending.
func (h *Handler) Pending(c *gin.Context) {
	list, err := h.svc.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Approve handles PUT /admin/issues/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	issue, err := h.svc.Approve(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, issue)
}

// Resolve handles PUT /admin/issues/:id/resolve.
func (h *Handler) Resolve(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	issue, err := h.svc.Resolve(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, issue)
}

// Reject handles DELETE /admin/issues/:id/reject.
func (h *Handler) Reject(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	if err := h.svc.Reject(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "issue rejected and deleted"})
}
