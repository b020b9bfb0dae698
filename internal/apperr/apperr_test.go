package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("event not found"), KindNotFound},
		{"wrapped conflict", fmt.Errorf("like: %w", Conflict("already liked")), KindConflict},
		{"foreign", errors.New("boom"), KindInternal},
		{"validation", Validation("invalid dates"), KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "internal server error", Message(Internal("insert event", errors.New("connection reset"))))
	assert.Equal(t, "event not found", Message(NotFound("event not found")))
}

func TestFromDB(t *testing.T) {
	assert.Nil(t, FromDB(nil, "x", "y"))

	err := FromDB(pgx.ErrNoRows, "issue not found", "dup")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "issue not found", Message(err))

	err = FromDB(&pgconn.PgError{Code: "23505"}, "missing", "already voted")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "already voted", Message(err))

	err = FromDB(errors.New("timeout"), "missing", "dup")
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestSentinelIs(t *testing.T) {
	errAlreadyLiked := Conflict("already liked")
	assert.True(t, errors.Is(fmt.Errorf("wrap: %w", Conflict("already liked")), errAlreadyLiked))
	assert.False(t, errors.Is(Conflict("other"), errAlreadyLiked))
}
