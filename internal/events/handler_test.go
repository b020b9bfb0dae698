package events

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/tz"
)

func newTestRouter(f *fixture, me *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.svc, tz.Kolkata)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if me != nil {
			c.Set(middleware.ContextUser, me)
		}
		c.Next()
	})
	r.GET("/events", h.List)
	r.POST("/events", h.Create)
	r.GET("/events/nearby", h.Nearby)
	r.GET("/events/:id", h.Get)
	r.GET("/search", h.Search)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "poster.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func eventFields() map[string]string {
	return map[string]string{
		"title":              "Food Drive",
		"description":        "Collect dry rations",
		"location":           "Indiranagar",
		"category":           "Charity",
		"type":               "Paid",
		"price":              "49.5",
		"start_date":         "2025-03-05T10:00",
		"end_date":           "2025-03-05T13:00:00+05:30",
		"registration_start": "2025-03-01T00:00",
		"registration_end":   "2025-03-04T23:59",
	}
}

func TestCreateHandler(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f, f.user(true, false))

	body, ct := multipartBody(t, eventFields(), []byte("\x89PNG"))
	req := httptest.NewRequest(http.MethodPost, "/events", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"type":"Paid"`)
	assert.Contains(t, w.Body.String(), `"attendees_count":0`)

	var resp struct {
		Data models.EventDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.EventTypePaid, resp.Data.Type)
	assert.Equal(t, 49.5, resp.Data.Price)
	assert.Equal(t, 10, resp.Data.StartDate.In(tz.Kolkata).Hour())
	assert.NotNil(t, resp.Data.ImagePath)
	assert.Len(t, f.images.saved, 1)
}

func TestCreateHandlerRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f, f.user(false, false))

	for name, mutate := range map[string]func(map[string]string){
		"bad date":      func(m map[string]string) { m["start_date"] = "next tuesday" },
		"bad price":     func(m map[string]string) { m["price"] = "free" },
		"missing title": func(m map[string]string) { delete(m, "title") },
	} {
		t.Run(name, func(t *testing.T) {
			fields := eventFields()
			mutate(fields)
			body, ct := multipartBody(t, fields, nil)
			req := httptest.NewRequest(http.MethodPost, "/events", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		})
	}
}

func TestNearbyHandler(t *testing.T) {
	f := newFixture(t)
	f.store.put(located(12.9719, 77.5937, true))
	r := newTestRouter(f, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/nearby?latitude=12.9716&longitude=77.5946", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"distance":0.1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/nearby?longitude=77.5946", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListAndGetHandlers(t *testing.T) {
	f := newFixture(t)
	f.store.put(&models.Event{Title: "approved", IsApproved: true})
	pending := f.store.put(&models.Event{Title: "pending"})
	r := newTestRouter(f, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"approved"`)
	assert.NotContains(t, w.Body.String(), `"title":"pending"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?approved_only=false", nil))
	assert.Contains(t, w.Body.String(), `"title":"pending"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?upcoming=soon", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+pending.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?query=", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
