package identity

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

type recordingSyncer struct {
	synced      []*Profile
	deactivated []string
}

func (r *recordingSyncer) SyncProfile(_ context.Context, p *Profile) (*models.User, error) {
	r.synced = append(r.synced, p)
	return &models.User{ClerkID: p.ID, Username: p.Username, Email: p.Email}, nil
}

func (r *recordingSyncer) Deactivate(_ context.Context, clerkID string) error {
	r.deactivated = append(r.deactivated, clerkID)
	return nil
}

const userCreated = `{"type":"user.created","data":{"id":"user_2x","username":"meera",
"primary_email_address_id":"idn_2","email_addresses":[{"id":"idn_1","email_address":"old@example.com"},{"id":"idn_2","email_address":"meera@example.com"}],
"primary_phone_number_id":null,"phone_numbers":[{"id":"ph_1","phone_number":"+919800000000"}]}}`

func post(h gin.HandlerFunc, body []byte, header http.Header) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/clerk-webhook", h)
	req := httptest.NewRequest(http.MethodPost, "/clerk-webhook", bytes.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookUnsigned(t *testing.T) {
	syncer := &recordingSyncer{}
	h, err := NewWebhookHandler(syncer, "", nil)
	require.NoError(t, err)

	w := post(h.Handle, []byte(userCreated), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, syncer.synced, 1)
	assert.Equal(t, "meera@example.com", syncer.synced[0].Email)
	assert.Equal(t, "+919800000000", syncer.synced[0].Phone)

	w = post(h.Handle, []byte(`{"type":"user.deleted","data":{"id":"user_2x","deleted":true}}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user_2x"}, syncer.deactivated)

	w = post(h.Handle, []byte(`{"type":"session.created","data":{"id":"sess_1"}}`), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(h.Handle, []byte(`{"type":"user.updated","data":{}}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookSigned(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("community-pulse-test-secret"))
	syncer := &recordingSyncer{}
	h, err := NewWebhookHandler(syncer, secret, nil)
	require.NoError(t, err)

	wh, err := svix.NewWebhook(secret)
	require.NoError(t, err)
	ts := time.Now()
	sig, err := wh.Sign("msg_1", ts, []byte(userCreated))
	require.NoError(t, err)

	header := http.Header{}
	header.Set("svix-id", "msg_1")
	header.Set("svix-timestamp", strconv.FormatInt(ts.Unix(), 10))
	header.Set("svix-signature", sig)

	w := post(h.Handle, []byte(userCreated), header)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, syncer.synced, 1)

	header.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString([]byte("forged")))
	w = post(h.Handle, []byte(userCreated), header)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Len(t, syncer.synced, 1)
}
