package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/internal/notifications"
	"github.com/Captain-Rohith/CommunityPulse/pkg/database"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an event and fills ID, counters and timestamps.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, title, description, location, latitude, longitude, category, event_type, price,
		start_date, end_date, registration_start, registration_end, image_path, organizer_id, is_approved)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, views, attendees_count, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		e.Title, e.Description, e.Location, e.Latitude, e.Longitude, e.Category, string(e.Type), e.Price,
		e.StartDate, e.EndDate, e.RegistrationStart, e.RegistrationEnd, e.ImagePath, e.OrganizerID, e.IsApproved,
	).Scan(&e.ID, &e.Views, &e.AttendeesCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return apperr.Internal("insert event", err)
	}
	return nil
}

// GetByID returns an event or NotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := ScanEvent(r.pool.QueryRow(ctx, `SELECT `+Columns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "event not found", "")
	}
	return e, nil
}

// List returns events matching f.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Event, error) {
	q := `SELECT ` + Columns + ` FROM events WHERE TRUE`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.ApprovedOnly {
		q += ` AND is_approved`
	}
	if f.Category != "" {
		q += ` AND category = ` + arg(f.Category)
	}
	order := ` ORDER BY start_date ASC`
	switch {
	case f.Upcoming:
		q += ` AND start_date >= ` + arg(f.Now)
	case f.Past:
		q += ` AND end_date < ` + arg(f.Now)
		order = ` ORDER BY start_date DESC`
	}
	rows, err := r.pool.Query(ctx, q+order, args...)
	if err != nil {
		return nil, apperr.Internal("query events", err)
	}
	return collect(rows)
}

// ListWithCoordinates returns approved events that have both coordinates.
func (r *Repository) ListWithCoordinates(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM events
		WHERE is_approved AND latitude IS NOT NULL AND longitude IS NOT NULL`)
	if err != nil {
		return nil, apperr.Internal("query located events", err)
	}
	return collect(rows)
}

// Search matches approved events whose text fields contain query, case-insensitively.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM events
		WHERE is_approved AND (
			title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
			OR location ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')
		ORDER BY start_date ASC`, escapeLike(query))
	if err != nil {
		return nil, apperr.Internal("search events", err)
	}
	return collect(rows)
}

// ListByOrganizer returns the organizer's events, latest start first.
func (r *Repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM events WHERE organizer_id = $1 ORDER BY start_date DESC`, organizerID)
	if err != nil {
		return nil, apperr.Internal("query organizer events", err)
	}
	return collect(rows)
}

// ListPending returns events awaiting approval, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM events WHERE NOT is_approved ORDER BY created_at ASC`)
	if err != nil {
		return nil, apperr.Internal("query pending events", err)
	}
	return collect(rows)
}

// Update writes the editable fields of e and refreshes updated_at.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET title = $2, description = $3, location = $4, latitude = $5, longitude = $6,
		category = $7, event_type = $8, price = $9, start_date = $10, end_date = $11, registration_start = $12,
		registration_end = $13, image_path = $14, is_approved = $15, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, e.ID,
		e.Title, e.Description, e.Location, e.Latitude, e.Longitude, e.Category, string(e.Type), e.Price,
		e.StartDate, e.EndDate, e.RegistrationStart, e.RegistrationEnd, e.ImagePath, e.IsApproved,
	).Scan(&e.UpdatedAt)
	return apperr.FromDB(err, "event not found", "")
}

// SetApproved sets the approval flag and returns the updated event.
func (r *Repository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*models.Event, error) {
	e, err := ScanEvent(r.pool.QueryRow(ctx,
		`UPDATE events SET is_approved = $2, updated_at = NOW() WHERE id = $1 RETURNING `+Columns, id, approved))
	if err != nil {
		return nil, apperr.FromDB(err, "event not found", "")
	}
	return e, nil
}

// DeleteWithNotices deletes the event and, in the same transaction, inserts a cancellation
// notification for every user whose registration is not cancelled.
func (r *Repository) DeleteWithNotices(ctx context.Context, id uuid.UUID, title, message string) ([]models.Notification, error) {
	var sent []models.Notification
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			return apperr.FromDB(err, "event not found", "")
		}
		rows, err := tx.Query(ctx, `INSERT INTO notifications (id, user_id, event_id, title, message, notification_type)
			SELECT gen_random_uuid(), user_id, event_id, $2, $3, $4
			FROM event_registrations WHERE event_id = $1 AND status <> $5
			RETURNING `+notifications.Columns,
			id, title, message, string(models.NotificationCancellation), string(models.StatusCancelled))
		if err != nil {
			return apperr.Internal("insert cancellation notices", err)
		}
		sent, err = collectNotifications(rows)
		if err != nil {
			return apperr.Internal("scan cancellation notices", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			return apperr.Internal("delete event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sent, nil
}

func collectNotifications(rows pgx.Rows) ([]models.Notification, error) {
	defer rows.Close()
	list := []models.Notification{}
	for rows.Next() {
		n, err := notifications.Scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// IncrementViews adds one to the event's view counter.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) (int, error) {
	var views int
	err := r.pool.QueryRow(ctx, `UPDATE events SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		return 0, apperr.FromDB(err, "event not found", "")
	}
	return views, nil
}

// Like records a like. Conflict when the user already liked the event.
func (r *Repository) Like(ctx context.Context, eventID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO event_likes (id, event_id, user_id) VALUES (gen_random_uuid(), $1, $2)`, eventID, userID)
	if err != nil {
		return apperr.FromDB(err, "", "event already liked")
	}
	return nil
}

// Unlike removes a like. NotFound when there is none.
func (r *Repository) Unlike(ctx context.Context, eventID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM event_likes WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return apperr.Internal("delete like", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("like not found")
	}
	return nil
}

// Engagement returns the like count and, for a known viewer, whether they liked or hold an
// active registration for the event.
func (r *Repository) Engagement(ctx context.Context, eventID uuid.UUID, viewerID *uuid.UUID) (Engagement, error) {
	var e Engagement
	const q = `SELECT
		(SELECT COUNT(*) FROM event_likes WHERE event_id = $1),
		COALESCE((SELECT TRUE FROM event_likes WHERE event_id = $1 AND user_id = $2), FALSE),
		COALESCE((SELECT TRUE FROM event_registrations WHERE event_id = $1 AND user_id = $2 AND status <> $3), FALSE)`
	err := r.pool.QueryRow(ctx, q, eventID, viewerID, string(models.StatusCancelled)).Scan(&e.Likes, &e.Liked, &e.Registered)
	if err != nil {
		return e, apperr.Internal("load engagement", err)
	}
	return e, nil
}

// Report files a report. Conflict when the user already reported the event.
func (r *Repository) Report(ctx context.Context, rep *models.EventReport) error {
	const q = `INSERT INTO event_reports (id, event_id, user_id, reason, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4) RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, rep.EventID, rep.UserID, rep.Reason, rep.Status).Scan(&rep.ID, &rep.CreatedAt)
	if err != nil {
		return apperr.FromDB(err, "", "event already reported")
	}
	return nil
}

// Registrations returns every registration row of the event for dashboards.
func (r *Repository) Registrations(ctx context.Context, eventID uuid.UUID) ([]models.EventRegistration, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, status, attendees, number_of_attendees, registered_at
		FROM event_registrations WHERE event_id = $1 ORDER BY registered_at ASC`, eventID)
	if err != nil {
		return nil, apperr.Internal("query event registrations", err)
	}
	defer rows.Close()
	list := []models.EventRegistration{}
	for rows.Next() {
		reg := models.EventRegistration{EventID: eventID}
		var status string
		var raw []byte
		if err := rows.Scan(&reg.ID, &reg.UserID, &status, &raw, &reg.NumberOfAttendees, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.Status = models.RegistrationStatus(status)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &reg.Attendees); err != nil {
				return nil, fmt.Errorf("decode attendees: %w", err)
			}
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// PGViews tracks views in the event_views table.
type PGViews struct {
	pool   *pgxpool.Pool
	window time.Duration
}

// NewPGViews creates a Postgres view tracker with the given dedup window.
func NewPGViews(pool *pgxpool.Pool, window time.Duration) *PGViews {
	return &PGViews{pool: pool, window: window}
}

// Record inserts a view unless the user viewed the event within the window.
func (v *PGViews) Record(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	const q = `INSERT INTO event_views (id, event_id, user_id)
		SELECT gen_random_uuid(), $1, $2
		WHERE NOT EXISTS (
			SELECT 1 FROM event_views WHERE event_id = $1 AND user_id = $2 AND viewed_at > NOW() - $3::interval)`
	tag, err := v.pool.Exec(ctx, q, eventID, userID, fmt.Sprintf("%d seconds", int(v.window.Seconds())))
	if err != nil {
		return false, apperr.Internal("record view", err)
	}
	return tag.RowsAffected() == 1, nil
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
