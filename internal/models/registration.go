package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the state of a user's registration for an event.
type RegistrationStatus string

const (
	StatusInterested RegistrationStatus = "interested"
	StatusRegistered RegistrationStatus = "registered"
	StatusCancelled  RegistrationStatus = "cancelled"
)

// Attendee is one person covered by a registration.
type Attendee struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Phone string `json:"phone"`
}

// UnmarshalJSON accepts age as a JSON number or a numeric string.
func (a *Attendee) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Age   json.RawMessage `json:"age"`
		Phone string          `json:"phone"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.Name = raw.Name
	a.Phone = raw.Phone
	a.Age = 0
	if len(raw.Age) == 0 || string(raw.Age) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Age, &n); err == nil {
		age, err := strconv.Atoi(n.String())
		if err != nil {
			return fmt.Errorf("age must be an integer")
		}
		a.Age = age
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Age, &s); err != nil {
		return fmt.Errorf("age must be a number")
	}
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("age must be a number")
	}
	a.Age = age
	return nil
}

// EventRegistration is the per (event, user) registration row.
type EventRegistration struct {
	ID                uuid.UUID          `json:"id"`
	EventID           uuid.UUID          `json:"event_id"`
	UserID            uuid.UUID          `json:"user_id"`
	Status            RegistrationStatus `json:"status"`
	Attendees         []Attendee         `json:"attendees"`
	NumberOfAttendees int                `json:"number_of_attendees"`
	RegisteredAt      time.Time          `json:"registered_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Active reports whether the registration counts toward the event aggregate.
func (r *EventRegistration) Active() bool {
	return r != nil && r.Status != StatusCancelled
}
