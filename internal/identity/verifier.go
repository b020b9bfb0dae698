// Package identity turns identity-provider credentials into local users.
package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownKey   = errors.New("unknown signing key")
)

// Claims holds the session token claims used here. iat is never validated.
type Claims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks RS256 session tokens against a static PEM key or a cached JWKS.
type Verifier struct {
	pub     *rsa.PublicKey
	jwksURL string
	keys    *jwk.Cache
	parser  *jwt.Parser
}

// NewPEMVerifier verifies against a single PEM-encoded RSA public key.
func NewPEMVerifier(pemKey string, issuer string, leeway time.Duration) (*Verifier, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse pem public key: %w", err)
	}
	return newVerifier(pub, issuer, leeway), nil
}

// NewJWKSVerifier verifies against the key set at url, refreshed in the background.
func NewJWKSVerifier(ctx context.Context, url string, issuer string, leeway time.Duration) (*Verifier, error) {
	c := jwk.NewCache(ctx)
	if err := c.Register(url, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("register jwks: %w", err)
	}
	v := newVerifier(nil, issuer, leeway)
	v.jwksURL = url
	v.keys = c
	return v, nil
}

func newVerifier(pub *rsa.PublicKey, issuer string, leeway time.Duration) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{pub: pub, parser: jwt.NewParser(opts...)}
}

// Verify validates the token and returns its claims. The subject is always non-empty.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, v.keyFunc(ctx))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return claims, nil
}

func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		if v.pub != nil {
			return v.pub, nil
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKey
		}
		set, err := v.keys.Get(ctx, v.jwksURL)
		if err != nil {
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, ErrUnknownKey
		}
		var raw interface{}
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("jwk raw: %w", err)
		}
		pub, ok := raw.(*rsa.PublicKey)
		if !ok {
			return nil, ErrUnknownKey
		}
		return pub, nil
	}
}
