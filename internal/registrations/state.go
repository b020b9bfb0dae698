package registrations

import (
	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

// Action is a requested registration transition.
type Action string

const (
	ActionInterest Action = "interest"
	ActionRegister Action = "register"
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
)

// Errors returned by Transition.
var (
	ErrAlreadyInterested = apperr.Conflict("already interested in this event")
	ErrAlreadyRegistered = apperr.Conflict("already registered for this event")
	ErrInterestRequired  = apperr.BadRequest("you must first mark interest in this event")
	ErrNotRegistered     = apperr.NotFound("registration not found")
)

// Transition computes the next state of a registration and the change to the event's
// attendee aggregate. cur is nil when no row exists. attendees is the new attendee list
// for interest, register and confirm; it is ignored for cancel.
//
// Summing delta over any sequence of successful transitions from an empty row keeps the
// aggregate equal to the row's count while active and zero while cancelled.
func Transition(cur *models.EventRegistration, action Action, attendees []models.Attendee) (next models.EventRegistration, delta int, err error) {
	if cur != nil {
		next = *cur
	}
	oldCount := 0
	if cur.Active() {
		oldCount = cur.NumberOfAttendees
	}

	switch action {
	case ActionInterest:
		if cur.Active() {
			if cur.Status == models.StatusRegistered {
				return next, 0, ErrAlreadyRegistered
			}
			return next, 0, ErrAlreadyInterested
		}
		next.Status = models.StatusInterested

	case ActionRegister:
		if cur.Active() {
			return next, 0, ErrAlreadyRegistered
		}
		next.Status = models.StatusRegistered

	case ActionConfirm:
		if !cur.Active() {
			return next, 0, ErrInterestRequired
		}
		if cur.Status == models.StatusRegistered {
			return next, 0, ErrAlreadyRegistered
		}
		next.Status = models.StatusRegistered

	case ActionCancel:
		if !cur.Active() {
			return next, 0, ErrNotRegistered
		}
		next.Status = models.StatusCancelled
		return next, -oldCount, nil

	default:
		return next, 0, apperr.BadRequest("unknown registration action")
	}

	next.Attendees = append([]models.Attendee(nil), attendees...)
	next.NumberOfAttendees = len(attendees)
	return next, next.NumberOfAttendees - oldCount, nil
}
