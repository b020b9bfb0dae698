// Package dbtest hands repository tests a migrated PostgreSQL pool.
//
// TEST_DATABASE_URL points the tests at an existing database; packages then share it, so run
// them with -p 1. Without it one postgres container is started per test binary and reaped by
// testcontainers when the binary exits. Tests are skipped when neither is available.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/pkg/database"
)

const image = "postgres:16-alpine"

// tables in dependency order; TRUNCATE ... CASCADE clears the rest.
var tables = []string{
	"issue_votes", "issues", "event_views", "event_reports", "event_likes",
	"notifications", "event_registrations", "events", "role_assignments", "users",
}

var (
	once    sync.Once
	dsn     string
	pool    *pgxpool.Pool
	initErr error
)

func start(ctx context.Context) (string, error) {
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url, nil
	}
	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("pulse_test"),
		postgres.WithUsername("pulse"),
		postgres.WithPassword("pulse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}
	return ctr.ConnectionString(ctx, "sslmode=disable")
}

func setup() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	dsn, initErr = start(ctx)
	if initErr != nil {
		return
	}
	if initErr = database.Migrate(dsn, zap.NewNop()); initErr != nil {
		return
	}
	pool, initErr = database.NewPostgresPool(ctx, dsn, zap.NewNop())
}

// Pool returns a pool on a freshly truncated, fully migrated database.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("database tests skipped in -short mode")
	}
	if os.Getenv("TEST_DATABASE_URL") == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}
	once.Do(setup)
	if initErr != nil {
		t.Fatalf("test database: %v", initErr)
	}

	if _, err := pool.Exec(context.Background(), "TRUNCATE "+strings.Join(tables, ", ")+" CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

// User inserts a plain user and returns its id.
func User(t *testing.T, p *pgxpool.Pool, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := p.QueryRow(context.Background(),
		`INSERT INTO users (clerk_id, username, email) VALUES ($1, $2, $3) RETURNING id`,
		"user_"+name+"_"+uuid.NewString()[:8], name, name+"-"+uuid.NewString()[:8]+"@example.com",
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert user %s: %v", name, err)
	}
	return id
}

// Event inserts an approved free event whose registration window is open and returns its id.
func Event(t *testing.T, p *pgxpool.Pool, organizerID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	now := time.Now()
	var id uuid.UUID
	err := p.QueryRow(context.Background(),
		`INSERT INTO events (title, description, location, category, start_date, end_date,
			registration_start, registration_end, organizer_id, is_approved)
		VALUES ($1, 'test event', 'Indiranagar', 'Community', $2, $3, $4, $5, $6, TRUE) RETURNING id`,
		title, now.Add(72*time.Hour), now.Add(75*time.Hour), now.Add(-time.Hour), now.Add(48*time.Hour), organizerID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert event %s: %v", title, err)
	}
	return id
}
