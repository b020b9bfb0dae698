package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

// Pusher delivers payloads to a user's live connections.
type Pusher interface {
	Push(userID uuid.UUID, event string, payload interface{})
}

// Service records notifications and pushes them to live connections.
type Service struct {
	store  Store
	pusher Pusher
	logger *zap.Logger
}

// NewService creates a notification service. pusher may be nil.
func NewService(store Store, pusher Pusher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pusher: pusher, logger: logger}
}

// Create stores n and pushes it to the owner.
func (s *Service) Create(ctx context.Context, n *models.Notification) error {
	if err := s.store.Create(ctx, n); err != nil {
		return err
	}
	s.logger.Debug("notification created",
		zap.String("user_id", n.UserID.String()),
		zap.String("type", string(n.Type)),
	)
	s.push(*n)
	return nil
}

// Broadcast pushes notifications that were stored elsewhere (e.g. inside an event delete).
func (s *Service) Broadcast(ctx context.Context, ns []models.Notification) {
	for _, n := range ns {
		s.push(n)
	}
	if len(ns) > 0 {
		s.logger.Info("notifications broadcast", zap.Int("count", len(ns)))
	}
}

func (s *Service) push(n models.Notification) {
	if s.pusher == nil {
		return
	}
	s.pusher.Push(n.UserID, EventNotification, n)
}

// ListUnread returns the user's unread notifications, newest first.
func (s *Service) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.store.ListUnread(ctx, userID)
}

// MarkRead marks a notification of userID read.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.MarkRead(ctx, userID, id)
}
