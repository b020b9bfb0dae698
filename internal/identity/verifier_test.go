package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func sign(t *testing.T, priv *rsa.PrivateKey, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
	require.NoError(t, err)
	return s
}

func TestVerifier(t *testing.T) {
	priv, pub := newKeyPair(t)
	other, _ := newKeyPair(t)
	v, err := NewPEMVerifier(pub, "", 30*time.Second)
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now()

	valid := jwt.RegisteredClaims{
		Subject:   "user_2abc",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	t.Run("valid", func(t *testing.T) {
		claims, err := v.Verify(ctx, sign(t, priv, valid))
		require.NoError(t, err)
		assert.Equal(t, "user_2abc", claims.Subject)
	})

	t.Run("issued in the future is accepted", func(t *testing.T) {
		c := valid
		c.IssuedAt = jwt.NewNumericDate(now.Add(10 * time.Minute))
		_, err := v.Verify(ctx, sign(t, priv, c))
		assert.NoError(t, err)
	})

	t.Run("expired within leeway", func(t *testing.T) {
		c := valid
		c.ExpiresAt = jwt.NewNumericDate(now.Add(-10 * time.Second))
		_, err := v.Verify(ctx, sign(t, priv, c))
		assert.NoError(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		c := valid
		c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
		_, err := v.Verify(ctx, sign(t, priv, c))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := v.Verify(ctx, sign(t, other, valid))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		c := valid
		c.Subject = ""
		_, err := v.Verify(ctx, sign(t, priv, c))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("hmac rejected", func(t *testing.T) {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, valid).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.Verify(ctx, s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewPEMVerifierRejectsBadKey(t *testing.T) {
	_, err := NewPEMVerifier("-----BEGIN PUBLIC KEY-----\nbm9wZQ==\n-----END PUBLIC KEY-----", "", 0)
	assert.Error(t, err)
}
