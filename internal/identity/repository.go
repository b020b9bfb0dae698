package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

const userColumns = `id, clerk_id, username, email, COALESCE(phone,''), is_admin, is_verified_organizer, is_banned, created_at, updated_at`

// UserFlags is a partial update of moderation flags.
type UserFlags struct {
	IsAdmin             *bool `json:"is_admin"`
	IsVerifiedOrganizer *bool `json:"is_verified_organizer"`
	IsBanned            *bool `json:"is_banned"`
}

// Repository handles user and role-assignment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.ClerkID, &u.Username, &u.Email, &u.Phone,
		&u.IsAdmin, &u.IsVerifiedOrganizer, &u.IsBanned, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "user not found", "")
	}
	return u, nil
}

// GetByClerkID returns the user mirrored from the provider subject.
func (r *Repository) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE clerk_id = $1`, clerkID))
	if err != nil {
		return nil, apperr.FromDB(err, "user not found", "")
	}
	return u, nil
}

// GetByIDs returns the users with the given IDs keyed by ID. Unknown IDs are skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	out := make(map[uuid.UUID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// List returns all users, newest first.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	list := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

// Create inserts a user and fills ID and timestamps.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (id, clerk_id, username, email, phone, is_admin, is_verified_organizer, is_banned)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''), $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, u.ClerkID, u.Username, u.Email, u.Phone,
		u.IsAdmin, u.IsVerifiedOrganizer, u.IsBanned).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return apperr.FromDB(err, "", "user already exists")
}

// UpdateProfile overwrites the provider-owned profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, u *models.User) error {
	const q = `UPDATE users SET username = $2, email = $3, phone = NULLIF($4,''), updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, u.ID, u.Username, u.Email, u.Phone).Scan(&u.UpdatedAt)
	return apperr.FromDB(err, "user not found", "email already in use")
}

// UpdateFlags applies a partial update of moderation flags and returns the user.
func (r *Repository) UpdateFlags(ctx context.Context, id uuid.UUID, f UserFlags) (*models.User, error) {
	const q = `UPDATE users SET
		is_admin = COALESCE($2, is_admin),
		is_verified_organizer = COALESCE($3, is_verified_organizer),
		is_banned = COALESCE($4, is_banned),
		updated_at = NOW()
		WHERE id = $1 RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, id, f.IsAdmin, f.IsVerifiedOrganizer, f.IsBanned))
	if err != nil {
		return nil, apperr.FromDB(err, "user not found", "")
	}
	return u, nil
}

// SetBannedByClerkID flags the user mirrored from clerkID. Returns NotFound when unknown.
func (r *Repository) SetBannedByClerkID(ctx context.Context, clerkID string, banned bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_banned = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, banned)
	if err != nil {
		return apperr.Internal("ban user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// HasRole reports whether email holds role in role_assignments.
func (r *Repository) HasRole(ctx context.Context, email, role string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_assignments WHERE email = $1 AND role = $2)`,
		strings.ToLower(email), role).Scan(&ok)
	if err != nil {
		return false, apperr.Internal("check role", err)
	}
	return ok, nil
}

// SeedRoles inserts role assignments for emails, leaving existing rows untouched.
func (r *Repository) SeedRoles(ctx context.Context, role string, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range emails {
		batch.Queue(`INSERT INTO role_assignments (email, role) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
			strings.ToLower(strings.TrimSpace(e)), role)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range emails {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("seed role assignment: %w", err)
		}
	}
	return nil
}

// SetAdmin sets the admin flag for a user.
func (r *Repository) SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET is_admin = $2, updated_at = NOW() WHERE id = $1`, id, admin)
	if err != nil {
		return apperr.Internal("set admin", err)
	}
	return nil
}
