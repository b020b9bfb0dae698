package registrations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

// ReminderLead is how long before an event starts its reminder refers to.
const ReminderLead = 24 * time.Hour

// Errors for event-level preconditions.
var (
	ErrEventNotApproved   = apperr.BadRequest("event is not approved yet")
	ErrRegistrationClosed = apperr.BadRequest("registration is not open for this event")
)

// TransitionFunc decides the next registration state while the event row is locked.
// cur is nil when the user has no row for the event.
type TransitionFunc func(ev *models.Event, cur *models.EventRegistration) (next *models.EventRegistration, delta int, err error)

// UserRegistration is a registration with its event.
type UserRegistration struct {
	models.EventRegistration
	Event models.Event `json:"event"`
}

// Store persists registrations. Apply must lock the event, run fn, write the returned row
// and add delta to the event aggregate (floored at zero) atomically.
type Store interface {
	Apply(ctx context.Context, eventID, userID uuid.UUID, fn TransitionFunc) (*models.EventRegistration, *models.Event, error)
	Get(ctx context.Context, eventID, userID uuid.UUID) (*models.EventRegistration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]UserRegistration, error)
	EventsForUser(ctx context.Context, userID uuid.UUID, statuses []models.RegistrationStatus) ([]models.Event, error)
}

// Notifier records notifications for users.
type Notifier interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Service runs the registration state machine.
type Service struct {
	store    Store
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a registration service.
func NewService(store Store, notifier Notifier, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, loc: loc, now: time.Now, logger: logger}
}

func (s *Service) clock() time.Time { return s.now().In(s.loc) }

func requireApproved(ev *models.Event) error {
	if !ev.IsApproved {
		return ErrEventNotApproved
	}
	return nil
}

func (s *Service) requireOpen(ev *models.Event) error {
	if err := requireApproved(ev); err != nil {
		return err
	}
	if !ev.RegistrationOpen(s.clock()) {
		return ErrRegistrationClosed
	}
	return nil
}

// MarkInterest handles none|cancelled -> interested with the user as the only attendee.
func (s *Service) MarkInterest(ctx context.Context, user *models.User, eventID uuid.UUID) (*models.EventRegistration, error) {
	party := []models.Attendee{{Name: user.Username, Phone: user.Phone}}
	return s.apply(ctx, user, eventID, ActionInterest, party, requireApproved)
}

// Register handles none|cancelled -> registered while the registration window is open.
func (s *Service) Register(ctx context.Context, user *models.User, eventID uuid.UUID, req AttendeeRequest) (*models.EventRegistration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, user, eventID, ActionRegister, req.Attendees, s.requireOpen)
}

// Confirm handles interested -> registered, replacing the attendee list.
func (s *Service) Confirm(ctx context.Context, user *models.User, eventID uuid.UUID, req AttendeeRequest) (*models.EventRegistration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, user, eventID, ActionConfirm, req.Attendees, nil)
}

// Cancel handles interested|registered -> cancelled.
func (s *Service) Cancel(ctx context.Context, user *models.User, eventID uuid.UUID) (*models.EventRegistration, error) {
	return s.apply(ctx, user, eventID, ActionCancel, nil, nil)
}

func (s *Service) apply(ctx context.Context, user *models.User, eventID uuid.UUID, action Action, attendees []models.Attendee, check func(*models.Event) error) (*models.EventRegistration, error) {
	reg, ev, err := s.store.Apply(ctx, eventID, user.ID, func(ev *models.Event, cur *models.EventRegistration) (*models.EventRegistration, int, error) {
		if check != nil {
			if err := check(ev); err != nil {
				return nil, 0, err
			}
		}
		next, delta, err := Transition(cur, action, attendees)
		if err != nil {
			return nil, 0, err
		}
		next.EventID = eventID
		next.UserID = user.ID
		return &next, delta, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration transition",
		zap.String("action", string(action)),
		zap.String("event_id", eventID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("status", string(reg.Status)),
		zap.Int("attendees_count", ev.AttendeesCount),
	)
	if reg.Status == models.StatusRegistered {
		s.remind(ctx, ev, user.ID)
	}
	return reg, nil
}

// remind inserts a reminder when the event starts more than ReminderLead from now.
func (s *Service) remind(ctx context.Context, ev *models.Event, userID uuid.UUID) {
	if !ev.StartDate.Add(-ReminderLead).After(s.clock()) {
		return
	}
	eventID := ev.ID
	n := &models.Notification{
		UserID:  userID,
		EventID: &eventID,
		Title:   "Event Reminder",
		Message: fmt.Sprintf("Reminder: The event '%s' is tomorrow!", ev.Title),
		Type:    models.NotificationReminder,
	}
	if err := s.notifier.Create(ctx, n); err != nil {
		s.logger.Error("create reminder failed", zap.String("event_id", ev.ID.String()), zap.Error(err))
	}
}

// Status returns the caller's registration for the event, nil when none.
func (s *Service) Status(ctx context.Context, userID, eventID uuid.UUID) (*models.EventRegistration, error) {
	return s.store.Get(ctx, eventID, userID)
}

// MyRegistrations returns every registration of the user with its event.
func (s *Service) MyRegistrations(ctx context.Context, userID uuid.UUID) ([]UserRegistration, error) {
	return s.store.ListByUser(ctx, userID)
}

// Listing names a user event listing.
type Listing string

const (
	ListingRegistered Listing = "registered"
	ListingInterested Listing = "interested"
	ListingSignedUp   Listing = "signedup"
)

// EventsFor returns the events the user is attached to under listing.
func (s *Service) EventsFor(ctx context.Context, userID uuid.UUID, listing Listing) ([]models.Event, error) {
	var statuses []models.RegistrationStatus
	switch listing {
	case ListingRegistered:
		statuses = []models.RegistrationStatus{models.StatusRegistered}
	case ListingInterested:
		statuses = []models.RegistrationStatus{models.StatusInterested}
	case ListingSignedUp:
		statuses = []models.RegistrationStatus{models.StatusInterested, models.StatusRegistered, models.StatusCancelled}
	default:
		return nil, apperr.BadRequest("unknown listing")
	}
	return s.store.EventsForUser(ctx, userID, statuses)
}
