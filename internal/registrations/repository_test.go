package registrations

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/database/dbtest"
	"github.com/Captain-Rohith/CommunityPulse/pkg/tz"
)

func activeSum(t *testing.T, pool *pgxpool.Pool, eventID uuid.UUID) (stored, summed int) {
	t.Helper()
	err := pool.QueryRow(context.Background(), `SELECT
		(SELECT attendees_count FROM events WHERE id = $1),
		(SELECT COALESCE(SUM(number_of_attendees), 0) FROM event_registrations WHERE event_id = $1 AND status <> $2)`,
		eventID, string(models.StatusCancelled)).Scan(&stored, &summed)
	require.NoError(t, err)
	return stored, summed
}

func TestRepositoryAggregateMatchesActiveRegistrations(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	svc := NewService(repo, &memNotifier{}, tz.Kolkata, nil)
	eventID := dbtest.Event(t, pool, dbtest.User(t, pool, "organizer"), "Lakeside Cleanup")

	users := make([]*models.User, 12)
	for i := range users {
		name := fmt.Sprintf("member%d", i)
		users[i] = &models.User{ID: dbtest.User(t, pool, name), Username: name}
	}

	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, _ = svc.MarkInterest(ctx, u, eventID)
			case 1:
				_, _ = svc.Register(ctx, u, eventID, twoAttendees())
			case 2:
				_, _ = svc.Register(ctx, u, eventID, twoAttendees())
				_, _ = svc.Cancel(ctx, u, eventID)
			}
		}(i, u)
	}
	wg.Wait()

	stored, summed := activeSum(t, pool, eventID)
	assert.Equal(t, summed, stored)
	assert.Equal(t, 4*1+4*2, stored)

	// interest -> confirm grows the party, cancel removes it
	_, err := svc.Confirm(ctx, users[0], eventID, twoAttendees())
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, users[1], eventID)
	require.NoError(t, err)
	_, err = svc.Register(ctx, users[2], eventID, twoAttendees())
	require.NoError(t, err)

	stored, summed = activeSum(t, pool, eventID)
	assert.Equal(t, summed, stored)
	assert.Equal(t, 4*1+4*2+1-2+2, stored)

	reg, err := repo.Get(ctx, eventID, users[2].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistered, reg.Status)
	assert.Len(t, reg.Attendees, 2)
}

func TestRepositoryAggregateFloorsAtZero(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	svc := NewService(repo, &memNotifier{}, tz.Kolkata, nil)
	eventID := dbtest.Event(t, pool, dbtest.User(t, pool, "organizer"), "Book Swap")
	u := &models.User{ID: dbtest.User(t, pool, "reader"), Username: "reader"}

	_, err := svc.Register(ctx, u, eventID, twoAttendees())
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE events SET attendees_count = 1 WHERE id = $1`, eventID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, u, eventID)
	require.NoError(t, err)
	stored, _ := activeSum(t, pool, eventID)
	assert.Equal(t, 0, stored)

	none, err := repo.Get(ctx, eventID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}
