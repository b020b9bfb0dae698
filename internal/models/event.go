package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType is Free or Paid.
type EventType string

const (
	EventTypeFree EventType = "Free"
	EventTypePaid EventType = "Paid"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventTypeFree || t == EventTypePaid
}

// Event is a community event.
type Event struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Location          string    `json:"location"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	Category          string    `json:"category"`
	Type              EventType `json:"type"`
	Price             float64   `json:"price"`
	Views             int       `json:"views"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	ImagePath         *string   `json:"image_path"`
	OrganizerID       uuid.UUID `json:"organizer_id"`
	IsApproved        bool      `json:"is_approved"`
	AttendeesCount    int       `json:"attendees_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (e *Event) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// RegistrationOpen reports whether now falls inside the registration window (inclusive).
func (e *Event) RegistrationOpen(now time.Time) bool {
	return !now.Before(e.RegistrationStart) && !now.After(e.RegistrationEnd)
}

// EventDetail is an event enriched for API responses.
type EventDetail struct {
	Event
	Organizer    *UserPublic `json:"organizer,omitempty"`
	Distance     *float64    `json:"distance,omitempty"`
	IsRegistered *bool       `json:"is_registered,omitempty"`
	IsLiked      *bool       `json:"is_liked,omitempty"`
	LikesCount   *int        `json:"likes_count,omitempty"`
}

// EventReport is a user's report against an event.
type EventReport struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportStatusPending is the status of a newly filed report.
const ReportStatusPending = "pending"
