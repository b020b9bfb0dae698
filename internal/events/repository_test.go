package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/database/dbtest"
)

func TestDeleteNotifiesActiveRegistrantsOnly(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	eventID := dbtest.Event(t, pool, dbtest.User(t, pool, "organizer"), "Night Market")

	interested := dbtest.User(t, pool, "interested")
	registered := dbtest.User(t, pool, "registered")
	cancelled := dbtest.User(t, pool, "cancelled")
	for user, status := range map[uuid.UUID]models.RegistrationStatus{
		interested: models.StatusInterested,
		registered: models.StatusRegistered,
		cancelled:  models.StatusCancelled,
	} {
		_, err := pool.Exec(ctx, `INSERT INTO event_registrations (event_id, user_id, status) VALUES ($1, $2, $3)`,
			eventID, user, string(status))
		require.NoError(t, err)
	}

	sent, err := repo.DeleteWithNotices(ctx, eventID, "Event Cancelled", "Night Market has been cancelled")
	require.NoError(t, err)

	got := map[uuid.UUID]bool{}
	for _, n := range sent {
		got[n.UserID] = true
		assert.Equal(t, models.NotificationCancellation, n.Type)
		assert.Equal(t, "Event Cancelled", n.Title)
	}
	assert.Equal(t, map[uuid.UUID]bool{interested: true, registered: true}, got)

	var stored int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, cancelled).Scan(&stored))
	assert.Zero(t, stored)
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&stored))
	assert.Equal(t, 2, stored)

	_, err = repo.GetByID(ctx, eventID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = repo.DeleteWithNotices(ctx, eventID, "Event Cancelled", "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestViewsCountedOncePerWindow(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	views := NewPGViews(pool, time.Hour)
	eventID := dbtest.Event(t, pool, dbtest.User(t, pool, "organizer"), "Open Mic")
	viewer, other := dbtest.User(t, pool, "viewer"), dbtest.User(t, pool, "other")

	view := func(user uuid.UUID) {
		t.Helper()
		counted, err := views.Record(ctx, eventID, user)
		require.NoError(t, err)
		if counted {
			_, err = repo.IncrementViews(ctx, eventID)
			require.NoError(t, err)
		}
	}
	count := func() int {
		t.Helper()
		e, err := repo.GetByID(ctx, eventID)
		require.NoError(t, err)
		return e.Views
	}

	view(viewer)
	view(viewer)
	assert.Equal(t, 1, count())

	view(other)
	assert.Equal(t, 2, count())

	// once the earlier view falls outside the window it counts again
	_, err := pool.Exec(ctx, `UPDATE event_views SET viewed_at = NOW() - INTERVAL '2 hours' WHERE user_id = $1`, viewer)
	require.NoError(t, err)
	view(viewer)
	assert.Equal(t, 3, count())
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	organizer := dbtest.User(t, pool, "organizer")
	dbtest.Event(t, pool, organizer, "100% Cotton Swap")
	dbtest.Event(t, pool, organizer, "Cotton Swap")

	found, err := repo.Search(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% Cotton Swap", found[0].Title)

	found, err = repo.Search(ctx, "cotton")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.Search(ctx, "_")
	require.NoError(t, err)
	assert.Empty(t, found)
}
