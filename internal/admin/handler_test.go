package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/identity"
	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) UpdateFlags(_ context.Context, id uuid.UUID, fl identity.UserFlags) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	if fl.IsAdmin != nil {
		u.IsAdmin = *fl.IsAdmin
	}
	if fl.IsVerifiedOrganizer != nil {
		u.IsVerifiedOrganizer = *fl.IsVerifiedOrganizer
	}
	if fl.IsBanned != nil {
		u.IsBanned = *fl.IsBanned
	}
	cp := *u
	return &cp, nil
}

type fakeEvents struct {
	pending  []models.EventDetail
	rejected []uuid.UUID
}

func (f *fakeEvents) Pending(context.Context) ([]models.EventDetail, error) { return f.pending, nil }

func (f *fakeEvents) Approve(_ context.Context, id uuid.UUID) (*models.Event, error) {
	for _, e := range f.pending {
		if e.ID == id {
			ev := e.Event
			ev.IsApproved = true
			return &ev, nil
		}
	}
	return nil, apperr.NotFound("event not found")
}

func (f *fakeEvents) Reject(_ context.Context, id uuid.UUID) error {
	f.rejected = append(f.rejected, id)
	return nil
}

func (f *fakeEvents) ByOrganizer(_ context.Context, organizerID uuid.UUID) ([]models.EventDetail, error) {
	out := []models.EventDetail{}
	for _, e := range f.pending {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func setup(caller *models.User) (*gin.Engine, *fakeUsers, *fakeEvents) {
	gin.SetMode(gin.TestMode)
	users := &fakeUsers{users: map[uuid.UUID]*models.User{}}
	evs := &fakeEvents{}
	h := NewHandler(users, evs, nil)

	r := gin.New()
	g := r.Group("/admin", func(c *gin.Context) {
		if caller != nil {
			c.Set(middleware.ContextUser, caller)
		}
		c.Next()
	}, middleware.RequireAdmin())
	g.GET("/events/pending", h.PendingEvents)
	g.PUT("/events/:id/approve", h.ApproveEvent)
	g.PUT("/events/:id/reject", h.RejectEvent)
	g.GET("/events/user/:id", h.UserEvents)
	g.GET("/users", h.ListUsers)
	g.PUT("/users/:id", h.UpdateUser)
	g.PUT("/users/:id/verify-organizer", h.VerifyOrganizer)
	return r, users, evs
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminGuard(t *testing.T) {
	r, _, _ := setup(nil)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/users", "").Code)

	r, _, _ = setup(&models.User{ID: uuid.New()})
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin/users", "").Code)

	r, _, _ = setup(&models.User{ID: uuid.New(), IsAdmin: true})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin/users", "").Code)
}

func TestEventModeration(t *testing.T) {
	r, _, evs := setup(&models.User{ID: uuid.New(), IsAdmin: true, Email: "admin@example.com"})
	organizer := uuid.New()
	ev := models.EventDetail{Event: models.Event{ID: uuid.New(), Title: "Clinic", OrganizerID: organizer}}
	evs.pending = []models.EventDetail{ev}

	w := do(r, http.MethodGet, "/admin/events/pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Clinic")

	w = do(r, http.MethodPut, "/admin/events/"+ev.ID.String()+"/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_approved":true`)

	w = do(r, http.MethodPut, "/admin/events/"+uuid.NewString()+"/approve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPut, "/admin/events/"+ev.ID.String()+"/reject", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{ev.ID}, evs.rejected)

	w = do(r, http.MethodGet, "/admin/events/user/"+organizer.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ev.ID.String())
}

func TestUserFlags(t *testing.T) {
	r, users, _ := setup(&models.User{ID: uuid.New(), IsAdmin: true})
	target := &models.User{ID: uuid.New(), Username: "meera"}
	users.users[target.ID] = target
	base := "/admin/users/" + target.ID.String()

	w := do(r, http.MethodPut, base, `{"is_banned":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, target.IsBanned)
	assert.False(t, target.IsAdmin)

	w = do(r, http.MethodPut, base, `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPut, base, `{"is_admin":"yes"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPut, base+"/verify-organizer", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, target.IsVerifiedOrganizer)

	w = do(r, http.MethodPut, "/admin/users/"+uuid.NewString()+"/verify-organizer", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPut, "/admin/users/abc", `{"is_banned":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
