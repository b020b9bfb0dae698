package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

// Columns selected for a notification, in scan order.
const Columns = `id, user_id, event_id, title, message, notification_type, is_read, created_at`

// Scan reads a notification row selected with Columns.
func Scan(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	var typ string
	err := row.Scan(&n.ID, &n.UserID, &n.EventID, &n.Title, &n.Message, &typ, &n.IsRead, &n.CreatedAt)
	n.Type = models.NotificationType(typ)
	return n, err
}

// Repository handles notification persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a notification and fills ID and created_at.
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (id, user_id, event_id, title, message, notification_type)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at`
	err := r.pool.QueryRow(ctx, q, n.UserID, n.EventID, n.Title, n.Message, string(n.Type)).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return apperr.Internal("insert notification", err)
	}
	return nil
}

// ListUnread returns the user's unread notifications, newest first.
func (r *Repository) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM notifications
		WHERE user_id = $1 AND NOT is_read ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, apperr.Internal("query notifications", err)
	}
	defer rows.Close()
	list := []models.Notification{}
	for rows.Next() {
		n, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead marks one of the user's notifications read. NotFound when it is not theirs.
func (r *Repository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperr.Internal("mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}
