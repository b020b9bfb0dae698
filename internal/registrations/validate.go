package registrations

import (
	"fmt"
	"strings"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

const (
	// MaxAttendees is the largest party a single registration may cover.
	MaxAttendees = 10
	maxAge       = 150
)

// AttendeeRequest is the body of register and confirm-registration.
type AttendeeRequest struct {
	NumberOfAttendees int               `json:"number_of_attendees"`
	Attendees         []models.Attendee `json:"attendees"`
}

// Validate checks party size and each attendee. Failures are Validation errors.
func (r *AttendeeRequest) Validate() error {
	n := len(r.Attendees)
	if n == 0 {
		return apperr.Validation("at least one attendee is required")
	}
	if n > MaxAttendees {
		return apperr.Validation(fmt.Sprintf("at most %d attendees per registration", MaxAttendees))
	}
	if r.NumberOfAttendees != n {
		return apperr.Validation("number_of_attendees must match the attendee list")
	}
	for i, a := range r.Attendees {
		if strings.TrimSpace(a.Name) == "" {
			return apperr.Validation(fmt.Sprintf("attendee %d: name is required", i+1))
		}
		if a.Age < 0 || a.Age > maxAge {
			return apperr.Validation(fmt.Sprintf("attendee %d: age out of range", i+1))
		}
	}
	return nil
}
