package events

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

// Handler handles event HTTP endpoints.
type Handler struct {
	svc *Service
	loc *time.Location
}

// NewHandler creates an events handler. Form dates without an offset are read in loc.
func NewHandler(svc *Service, loc *time.Location) *Handler {
	return &Handler{svc: svc, loc: loc}
}

func eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

func queryBool(c *gin.Context, key string, def bool) (bool, bool) {
	v := c.Query(key)
	if v == "" {
		return def, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		response.UnprocessableEntity(c, key+" must be a boolean")
		return false, false
	}
	return b, true
}

func queryFloat(c *gin.Context, key string, def *float64) (float64, bool) {
	v := c.Query(key)
	if v == "" {
		if def == nil {
			response.UnprocessableEntity(c, key+" is required")
			return 0, false
		}
		return *def, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		response.UnprocessableEntity(c, key+" must be a number")
		return 0, false
	}
	return f, true
}

// Create handles POST /events (multipart form).
func (h *Handler) Create(c *gin.Context) {
	in, done, err := parseForm(c, h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer done()
	ev, err := h.svc.Create(c.Request.Context(), middleware.MustUser(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ev)
}

// List handles GET /events?category&upcoming&past&approved_only.
func (h *Handler) List(c *gin.Context) {
	f := Filter{Category: c.Query("category")}
	var ok bool
	if f.Upcoming, ok = queryBool(c, "upcoming", false); !ok {
		return
	}
	if f.Past, ok = queryBool(c, "past", false); !ok {
		return
	}
	if f.ApprovedOnly, ok = queryBool(c, "approved_only", true); !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Nearby handles GET /events/nearby?latitude&longitude&max_distance.
func (h *Handler) Nearby(c *gin.Context) {
	lat, ok := queryFloat(c, "latitude", nil)
	if !ok {
		return
	}
	lon, ok := queryFloat(c, "longitude", nil)
	if !ok {
		return
	}
	def := DefaultNearbyKm
	maxKm, ok := queryFloat(c, "max_distance", &def)
	if !ok {
		return
	}
	list, err := h.svc.Nearby(c.Request.Context(), lat, lon, maxKm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ev, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ev)
}

// Details handles GET /events/:id/details (optional auth).
func (h *Handler) Details(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ev, err := h.svc.Details(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ev)
}

// Update handles PUT /events/:id (multipart form, partial).
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	in, done, err := parseForm(c, h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer done()
	ev, err := h.svc.Update(c.Request.Context(), middleware.MustUser(c), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ev)
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.MustUser(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "event deleted"})
}

// Like handles POST /events/:id/like.
func (h *Handler) Like(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.Like(c.Request.Context(), middleware.MustUser(c).ID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "event liked"})
}

// Unlike handles DELETE /events/:id/like.
func (h *Handler) Unlike(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.Unlike(c.Request.Context(), middleware.MustUser(c).ID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "event unliked"})
}

// ReportRequest is the body for POST /events/:id/report.
type ReportRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Report handles POST /events/:id/report.
func (h *Handler) Report(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.UnprocessableEntity(c, "invalid request: "+err.Error())
		return
	}
	rep, err := h.svc.Report(c.Request.Context(), middleware.MustUser(c).ID, id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rep)
}

// Search handles GET /search?query.
func (h *Handler) Search(c *gin.Context) {
	list, err := h.svc.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Dashboard handles GET /events/:id/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	d, err := h.svc.Dashboard(c.Request.Context(), middleware.MustUser(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// Mine handles GET /my-events, /user/events/created and /user/events/organizing.
func (h *Handler) Mine(c *gin.Context) {
	list, err := h.svc.ByOrganizer(c.Request.Context(), middleware.MustUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
