package issues

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/database/dbtest"
)

func TestRepositoryVotesMatchBallots(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	issue := &models.Issue{
		Title:       "Broken streetlight",
		Description: "Dark corner near the bus stop",
		Location:    "5th Cross",
		Category:    "Infrastructure",
		Status:      models.IssuePending,
		ReporterID:  dbtest.User(t, pool, "reporter"),
	}
	require.NoError(t, repo.Create(ctx, issue))

	voters := make([]uuid.UUID, 10)
	for i := range voters {
		voters[i] = dbtest.User(t, pool, fmt.Sprintf("voter%d", i))
	}
	var wg sync.WaitGroup
	for _, v := range voters {
		wg.Add(1)
		go func(v uuid.UUID) {
			defer wg.Done()
			_, _ = repo.Vote(ctx, issue.ID, v)
		}(v)
	}
	wg.Wait()

	count, err := repo.Vote(ctx, issue.ID, voters[0])
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Zero(t, count)

	count, err = repo.Unvote(ctx, issue.ID, voters[1])
	require.NoError(t, err)
	assert.Equal(t, 9, count)

	_, err = repo.Unvote(ctx, issue.ID, voters[1])
	assert.ErrorIs(t, err, ErrVoteNotFound)

	var stored, ballots int
	err = pool.QueryRow(ctx, `SELECT votes_count, (SELECT COUNT(*) FROM issue_votes WHERE issue_id = $1)
		FROM issues WHERE id = $1`, issue.ID).Scan(&stored, &ballots)
	require.NoError(t, err)
	assert.Equal(t, 9, stored)
	assert.Equal(t, ballots, stored)

	voted, err := repo.VotedBy(ctx, voters[2], []uuid.UUID{issue.ID})
	require.NoError(t, err)
	assert.True(t, voted[issue.ID])

	_, err = repo.Vote(ctx, uuid.New(), voters[0])
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
