package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendeeAge(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"number", `{"name":"A","age":31,"phone":"1"}`, 31, false},
		{"numeric string", `{"name":"A","age":" 27 ","phone":"1"}`, 27, false},
		{"missing", `{"name":"A","phone":"1"}`, 0, false},
		{"fraction", `{"name":"A","age":3.5}`, 0, true},
		{"word", `{"name":"A","age":"thirty"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Attendee
			err := json.Unmarshal([]byte(tt.raw), &a)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Age)
			assert.Equal(t, "A", a.Name)
		})
	}
}

func TestRegistrationOpenIsInclusive(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	e := Event{RegistrationStart: start, RegistrationEnd: end}

	assert.True(t, e.RegistrationOpen(start))
	assert.True(t, e.RegistrationOpen(end))
	assert.False(t, e.RegistrationOpen(start.Add(-time.Second)))
	assert.False(t, e.RegistrationOpen(end.Add(time.Second)))
}

func TestCanModerate(t *testing.T) {
	owner := uuid.New()
	var nobody *User
	assert.False(t, nobody.CanModerate(owner))
	assert.True(t, (&User{ID: owner}).CanModerate(owner))
	assert.True(t, (&User{ID: uuid.New(), IsAdmin: true}).CanModerate(owner))
	assert.False(t, (&User{ID: uuid.New()}).CanModerate(owner))
}

func TestWireFieldNames(t *testing.T) {
	raw, err := json.Marshal(Event{Type: EventTypePaid, AttendeesCount: 3})
	require.NoError(t, err)
	var ev map[string]any
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, "Paid", ev["type"])
	assert.EqualValues(t, 3, ev["attendees_count"])
	assert.NotContains(t, ev, "event_type")
	assert.NotContains(t, ev, "current_attendees")

	raw, err = json.Marshal(EventRegistration{RegisteredAt: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	var reg map[string]any
	require.NoError(t, json.Unmarshal(raw, &reg))
	assert.Equal(t, "2025-02-01T10:00:00Z", reg["registered_at"])
	assert.NotContains(t, reg, "registration_date")
}
