package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
)

const maxWebhookBody = 1 << 20

// Webhook event types from the identity provider.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// webhookEvent is the envelope of every provider webhook.
type webhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SignatureVerifier checks a signed webhook payload.
type SignatureVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// UserSyncer applies webhook user events.
type UserSyncer interface {
	SyncProfile(ctx context.Context, p *Profile) (*models.User, error)
	Deactivate(ctx context.Context, clerkID string) error
}

// WebhookHandler handles user lifecycle webhooks from the identity provider.
type WebhookHandler struct {
	users  UserSyncer
	sig    SignatureVerifier
	logger *zap.Logger
}

// NewWebhookHandler creates a webhook handler. An empty secret disables signature checks.
func NewWebhookHandler(users UserSyncer, secret string, logger *zap.Logger) (*WebhookHandler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WebhookHandler{users: users, logger: logger}
	if secret == "" {
		logger.Warn("CLERK_WEBHOOK_SECRET not set, webhook signatures are not verified")
		return h, nil
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	h.sig = wh
	return h, nil
}

// Handle handles POST /clerk-webhook.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if h.sig != nil {
		if err := h.sig.Verify(payload, c.Request.Header); err != nil {
			h.logger.Warn("webhook signature rejected", zap.Error(err))
			response.Unauthorized(c, "invalid webhook signature")
			return
		}
	}

	var evt webhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var data clerkUser
	if len(evt.Data) > 0 {
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			response.BadRequest(c, "invalid user payload")
			return
		}
	}

	ctx := c.Request.Context()
	switch evt.Type {
	case EventUserCreated, EventUserUpdated:
		if data.ID == "" {
			response.BadRequest(c, "user id required")
			return
		}
		p := data.profile()
		if p.Email == "" {
			h.logger.Info("webhook user without primary email skipped", zap.String("clerk_id", data.ID))
			break
		}
		u, err := h.users.SyncProfile(ctx, p)
		if err != nil {
			h.logger.Error("webhook user sync failed", zap.String("type", evt.Type), zap.String("clerk_id", data.ID), zap.Error(err))
			response.Error(c, err)
			return
		}
		h.logger.Info("webhook user synced", zap.String("type", evt.Type), zap.String("user_id", u.ID.String()))
	case EventUserDeleted:
		if data.ID == "" {
			response.BadRequest(c, "user id required")
			return
		}
		if err := h.users.Deactivate(ctx, data.ID); err != nil {
			h.logger.Error("webhook user deactivate failed", zap.String("clerk_id", data.ID), zap.Error(err))
			response.Error(c, err)
			return
		}
		h.logger.Info("webhook user deactivated", zap.String("clerk_id", data.ID))
	default:
		h.logger.Debug("webhook event ignored", zap.String("type", evt.Type))
	}
	response.OK(c, gin.H{"status": "success", "type": evt.Type})
}
