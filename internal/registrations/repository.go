package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/events"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/database"
)

const regColumns = `id, event_id, user_id, status, attendees, number_of_attendees, registered_at, updated_at`

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// regScan holds the raw columns of a registration row until finish decodes them.
type regScan struct {
	reg       models.EventRegistration
	status    string
	attendees []byte
}

func (s *regScan) dest() []any {
	return []any{&s.reg.ID, &s.reg.EventID, &s.reg.UserID, &s.status, &s.attendees,
		&s.reg.NumberOfAttendees, &s.reg.RegisteredAt, &s.reg.UpdatedAt}
}

func (s *regScan) finish() (*models.EventRegistration, error) {
	s.reg.Status = models.RegistrationStatus(s.status)
	s.reg.Attendees = []models.Attendee{}
	if len(s.attendees) > 0 {
		if err := json.Unmarshal(s.attendees, &s.reg.Attendees); err != nil {
			return nil, fmt.Errorf("decode attendees: %w", err)
		}
	}
	return &s.reg, nil
}

func scanRegistration(row pgx.Row) (*models.EventRegistration, error) {
	var s regScan
	if err := row.Scan(s.dest()...); err != nil {
		return nil, err
	}
	return s.finish()
}

// Apply locks the event row, runs fn against the caller's registration and persists the result
// together with the aggregate delta in one transaction.
func (r *Repository) Apply(ctx context.Context, eventID, userID uuid.UUID, fn TransitionFunc) (*models.EventRegistration, *models.Event, error) {
	var reg *models.EventRegistration
	var ev *models.Event
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		ev, err = events.ScanEvent(tx.QueryRow(ctx, `SELECT `+events.Columns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
		if err != nil {
			return apperr.FromDB(err, "event not found", "")
		}

		cur, err := scanRegistration(tx.QueryRow(ctx,
			`SELECT `+regColumns+` FROM event_registrations WHERE event_id = $1 AND user_id = $2 FOR UPDATE`, eventID, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			cur = nil
		} else if err != nil {
			return apperr.Internal("load registration", err)
		}

		next, delta, err := fn(ev, cur)
		if err != nil {
			return err
		}

		attendees, err := json.Marshal(next.Attendees)
		if err != nil {
			return fmt.Errorf("encode attendees: %w", err)
		}
		if cur == nil {
			const q = `INSERT INTO event_registrations (id, event_id, user_id, status, attendees, number_of_attendees)
				VALUES (gen_random_uuid(), $1, $2, $3, $4, $5) RETURNING ` + regColumns
			reg, err = scanRegistration(tx.QueryRow(ctx, q, eventID, userID, string(next.Status), attendees, next.NumberOfAttendees))
		} else {
			const q = `UPDATE event_registrations SET status = $2, attendees = $3, number_of_attendees = $4, updated_at = NOW()
				WHERE id = $1 RETURNING ` + regColumns
			reg, err = scanRegistration(tx.QueryRow(ctx, q, cur.ID, string(next.Status), attendees, next.NumberOfAttendees))
		}
		if err != nil {
			return apperr.FromDB(err, "registration not found", "registration already exists")
		}

		if delta != 0 {
			err = tx.QueryRow(ctx,
				`UPDATE events SET attendees_count = GREATEST(attendees_count + $2, 0), updated_at = NOW()
				WHERE id = $1 RETURNING attendees_count`, eventID, delta).Scan(&ev.AttendeesCount)
			if err != nil {
				return apperr.Internal("update attendees count", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return reg, ev, nil
}

// Get returns the user's registration for the event, nil when none.
func (r *Repository) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.EventRegistration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+regColumns+` FROM event_registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("load registration", err)
	}
	return reg, nil
}

// ListByUser returns every registration of the user joined with its event, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserRegistration, error) {
	q := `SELECT ` + events.ColumnsAs("e") + `, r.id, r.event_id, r.user_id, r.status, r.attendees,
		r.number_of_attendees, r.registered_at, r.updated_at
		FROM event_registrations r JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1 ORDER BY r.registered_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, apperr.Internal("query registrations", err)
	}
	defer rows.Close()
	list := []UserRegistration{}
	for rows.Next() {
		var rs regScan
		ev, err := events.ScanEvent(rows, rs.dest()...)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg, err := rs.finish()
		if err != nil {
			return nil, err
		}
		list = append(list, UserRegistration{EventRegistration: *reg, Event: *ev})
	}
	return list, rows.Err()
}

// EventsForUser returns events where the user's registration has one of statuses, by start date.
func (r *Repository) EventsForUser(ctx context.Context, userID uuid.UUID, statuses []models.RegistrationStatus) ([]models.Event, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	q := `SELECT ` + events.ColumnsAs("e") + `
		FROM events e JOIN event_registrations r ON r.event_id = e.id
		WHERE r.user_id = $1 AND r.status = ANY($2)
		ORDER BY e.start_date ASC`
	rows, err := r.pool.Query(ctx, q, userID, names)
	if err != nil {
		return nil, apperr.Internal("query user events", err)
	}
	defer rows.Close()
	list := []models.Event{}
	for rows.Next() {
		ev, err := events.ScanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, *ev)
	}
	return list, rows.Err()
}
