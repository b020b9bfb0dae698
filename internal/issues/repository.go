package issues

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/database"
)

const columns = `id, title, description, location, latitude, longitude, category, status, image_path,
	reporter_id, is_approved, votes_count, created_at, updated_at`

func scanIssue(row pgx.Row) (*models.Issue, error) {
	var i models.Issue
	var status string
	err := row.Scan(&i.ID, &i.Title, &i.Description, &i.Location, &i.Latitude, &i.Longitude, &i.Category, &status,
		&i.ImagePath, &i.ReporterID, &i.IsApproved, &i.VotesCount, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.Status = models.IssueStatus(status)
	return &i, nil
}

// Repository handles issue persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an issues repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an issue.
func (r *Repository) Create(ctx context.Context, i *models.Issue) error {
	const q = `INSERT INTO issues (id, title, description, location, latitude, longitude, category, status,
		image_path, reporter_id, is_approved)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, votes_count, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, i.Title, i.Description, i.Location, i.Latitude, i.Longitude, i.Category,
		string(i.Status), i.ImagePath, i.ReporterID, i.IsApproved,
	).Scan(&i.ID, &i.VotesCount, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return apperr.Internal("insert issue", err)
	}
	return nil
}

// GetByID returns an issue or NotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	i, err := scanIssue(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM issues WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "issue not found", "")
	}
	return i, nil
}

// List returns issues matching f, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Issue, error) {
	q := `SELECT ` + columns + ` FROM issues WHERE TRUE`
	var args []any
	if f.ApprovedOnly {
		q += ` AND is_approved`
	}
	if f.Category != "" {
		args = append(args, f.Category)
		q += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	return r.query(ctx, q+` ORDER BY created_at DESC`, args...)
}

// ListPending returns issues awaiting approval, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.Issue, error) {
	return r.query(ctx, `SELECT `+columns+` FROM issues WHERE NOT is_approved ORDER BY created_at ASC`)
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]models.Issue, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.Internal("query issues", err)
	}
	defer rows.Close()
	list := []models.Issue{}
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		list = append(list, *i)
	}
	return list, rows.Err()
}

// VotedBy returns which of ids the user voted for.
func (r *Repository) VotedBy(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT issue_id FROM issue_votes WHERE user_id = $1 AND issue_id = ANY($2)`, userID, ids)
	if err != nil {
		return nil, apperr.Internal("query votes", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// Vote inserts the user's vote and increments votes_count in one transaction.
func (r *Repository) Vote(ctx context.Context, issueID, userID uuid.UUID) (int, error) {
	var count int
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM issues WHERE id = $1 FOR UPDATE`, issueID).Scan(&locked); err != nil {
			return apperr.FromDB(err, "issue not found", "")
		}
		tag, err := tx.Exec(ctx, `INSERT INTO issue_votes (id, issue_id, user_id) VALUES (gen_random_uuid(), $1, $2)
			ON CONFLICT (issue_id, user_id) DO NOTHING`, issueID, userID)
		if err != nil {
			return apperr.Internal("insert vote", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyVoted
		}
		return tx.QueryRow(ctx, `UPDATE issues SET votes_count = votes_count + 1, updated_at = NOW()
			WHERE id = $1 RETURNING votes_count`, issueID).Scan(&count)
	})
	return count, err
}

// Unvote removes the user's vote and decrements votes_count, floored at zero, in one transaction.
func (r *Repository) Unvote(ctx context.Context, issueID, userID uuid.UUID) (int, error) {
	var count int
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM issues WHERE id = $1 FOR UPDATE`, issueID).Scan(&locked); err != nil {
			return apperr.FromDB(err, "issue not found", "")
		}
		tag, err := tx.Exec(ctx, `DELETE FROM issue_votes WHERE issue_id = $1 AND user_id = $2`, issueID, userID)
		if err != nil {
			return apperr.Internal("delete vote", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVoteNotFound
		}
		return tx.QueryRow(ctx, `UPDATE issues SET votes_count = GREATEST(votes_count - 1, 0), updated_at = NOW()
			WHERE id = $1 RETURNING votes_count`, issueID).Scan(&count)
	})
	return count, err
}

// SetModeration updates is_approved and status together.
func (r *Repository) SetModeration(ctx context.Context, id uuid.UUID, approved bool, status models.IssueStatus) (*models.Issue, error) {
	i, err := scanIssue(r.pool.QueryRow(ctx, `UPDATE issues SET is_approved = $2, status = $3, updated_at = NOW()
		WHERE id = $1 RETURNING `+columns, id, approved, string(status)))
	if err != nil {
		return nil, apperr.FromDB(err, "issue not found", "")
	}
	return i, nil
}

// Delete removes an issue; votes cascade. Returns the deleted issue.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	i, err := scanIssue(r.pool.QueryRow(ctx, `DELETE FROM issues WHERE id = $1 RETURNING `+columns, id))
	if err != nil {
		return nil, apperr.FromDB(err, "issue not found", "")
	}
	return i, nil
}
