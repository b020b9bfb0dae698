package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

const (
	// ContextUser is the key for the resolved *models.User in gin context.
	ContextUser = "user"
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
)

// IdentityResolver resolves bearer tokens to local users.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
	ResolveOptional(ctx context.Context, token string) *models.User
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Authenticate requires a valid bearer token and stores the user in context.
func Authenticate(res IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing or invalid authorization header")
			c.Abort()
			return
		}
		u, err := res.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		setUser(c, u)
		c.Next()
	}
}

// OptionalAuthenticate stores the user when a valid token is present and never rejects.
func OptionalAuthenticate(res IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := BearerToken(c); ok {
			if u := res.ResolveOptional(c.Request.Context(), token); u != nil {
				setUser(c, u)
			}
		}
		c.Next()
	}
}

// RequireAdmin allows only admins. Runs after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !u.IsAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func setUser(c *gin.Context, u *models.User) {
	c.Set(ContextUser, u)
	c.Set(ContextUserID, u.ID)
}

// CurrentUser returns the resolved user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// MustUser returns the resolved user; only valid behind Authenticate.
func MustUser(c *gin.Context) *models.User {
	return c.MustGet(ContextUser).(*models.User)
}
