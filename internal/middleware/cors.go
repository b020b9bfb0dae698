package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	// svix-* headers are sent by the identity provider's webhook deliveries.
	corsHeaders = "Content-Type, Authorization, svix-id, svix-timestamp, svix-signature"
)

// originPolicy is a parsed CORS_ALLOWED_ORIGINS value. Empty or "*" allows any origin.
type originPolicy struct {
	any     bool
	origins map[string]bool
}

func parseOrigins(s string) originPolicy {
	p := originPolicy{origins: make(map[string]bool)}
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			p.origins[o] = true
		}
	}
	p.any = len(p.origins) == 0 || p.origins["*"]
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or "" to omit it.
func (p originPolicy) allowOrigin(origin string) string {
	switch {
	case p.any:
		return "*"
	case origin != "" && p.origins[origin]:
		return origin
	default:
		return ""
	}
}

// CORS returns a middleware that sets CORS headers for cross-origin requests.
// allowedOrigins is "*" or a comma-separated list (e.g. "http://localhost:3000,https://pulse.example.org").
func CORS(allowedOrigins string) gin.HandlerFunc {
	policy := parseOrigins(allowedOrigins)
	return func(c *gin.Context) {
		if allow := policy.allowOrigin(c.GetHeader("Origin")); allow != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allow)
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", "86400")
			if allow != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// OriginAllowed returns a predicate over the same origin list CORS uses; the websocket upgrader checks it.
func OriginAllowed(allowedOrigins string) func(origin string) bool {
	policy := parseOrigins(allowedOrigins)
	return func(origin string) bool {
		return policy.allowOrigin(origin) != ""
	}
}
