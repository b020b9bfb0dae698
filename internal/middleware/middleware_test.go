package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	users map[string]*models.User
}

func (s stubResolver) Resolve(_ context.Context, token string) (*models.User, error) {
	u, ok := s.users[token]
	if !ok {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}
	if u.IsBanned {
		return nil, apperr.Forbidden("account is banned")
	}
	return u, nil
}

func (s stubResolver) ResolveOptional(ctx context.Context, token string) *models.User {
	u, err := s.Resolve(ctx, token)
	if err != nil {
		return nil
	}
	return u
}

func newRouter() *gin.Engine {
	res := stubResolver{users: map[string]*models.User{
		"admin":  {ID: uuid.New(), Username: "root", IsAdmin: true},
		"member": {ID: uuid.New(), Username: "asha"},
		"banned": {ID: uuid.New(), Username: "spam", IsBanned: true},
	}}
	r := gin.New()
	r.Use(Logger(zap.NewNop()), Metrics())

	r.GET("/feed", OptionalAuthenticate(res), func(c *gin.Context) {
		name := "anonymous"
		if u := CurrentUser(c); u != nil {
			name = u.Username
		}
		response.OK(c, gin.H{"viewer": name})
	})
	admin := r.Group("/admin")
	admin.Use(Authenticate(res), RequireAdmin())
	admin.GET("/users", func(c *gin.Context) { response.OK(c, []string{}) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminGuard(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin/users", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin/users", "forged").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin/users", "member").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin/users", "banned").Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin/users", "admin").Code)
}

func TestOptionalAuthenticateNeverRejects(t *testing.T) {
	r := newRouter()

	w := do(r, "/feed", "forged")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	w = do(r, "/feed", "banned")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	w = do(r, "/feed", "member")
	assert.Contains(t, w.Body.String(), "asha")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			c.Request.Header.Set("Authorization", tt.header)
		}
		got, ok := BearerToken(c)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:3000"))
	r.GET("/events", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginAllowed(t *testing.T) {
	allowed := OriginAllowed("http://localhost:3000, https://pulse.example.org")
	assert.True(t, allowed("https://pulse.example.org"))
	assert.False(t, allowed("http://evil.example"))
	assert.False(t, allowed(""))

	assert.True(t, OriginAllowed("*")("http://evil.example"))
	assert.True(t, OriginAllowed("")("http://evil.example"))
}
