package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/geo"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/queue"
	"github.com/Captain-Rohith/CommunityPulse/pkg/storage"
)

// DefaultNearbyKm is the search radius used when none is given.
const DefaultNearbyKm = 10.0

var (
	ErrNotOwner       = apperr.Forbidden("not authorized to modify this event")
	ErrDashboardOwner = apperr.Forbidden("not authorized to view dashboard")
	// ErrPartialCoordinates rejects an update that moves only one coordinate.
	ErrPartialCoordinates = apperr.Validation("latitude and longitude must be updated together")
)

// Filter selects events for List.
type Filter struct {
	Category     string
	Upcoming     bool
	Past         bool
	ApprovedOnly bool
	Now          time.Time
}

// Engagement is the like and registration state of an event for one viewer.
type Engagement struct {
	Likes      int
	Liked      bool
	Registered bool
}

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, f Filter) ([]models.Event, error)
	ListWithCoordinates(ctx context.Context) ([]models.Event, error)
	Search(ctx context.Context, query string) ([]models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error)
	ListPending(ctx context.Context) ([]models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*models.Event, error)
	DeleteWithNotices(ctx context.Context, id uuid.UUID, title, message string) ([]models.Notification, error)
	IncrementViews(ctx context.Context, id uuid.UUID) (int, error)
	Like(ctx context.Context, eventID, userID uuid.UUID) error
	Unlike(ctx context.Context, eventID, userID uuid.UUID) error
	Engagement(ctx context.Context, eventID uuid.UUID, viewerID *uuid.UUID) (Engagement, error)
	Report(ctx context.Context, rep *models.EventReport) error
	Registrations(ctx context.Context, eventID uuid.UUID) ([]models.EventRegistration, error)
}

// ViewTracker reports whether a view is the first by the user inside the dedup window.
type ViewTracker interface {
	Record(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

// UserLookup loads users by id.
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error)
}

// Broadcaster pushes already stored notifications to their owners.
type Broadcaster interface {
	Broadcast(ctx context.Context, ns []models.Notification)
}

// CleanupQueue receives images whose in-request deletion failed.
type CleanupQueue interface {
	EnqueueImageCleanup(ctx context.Context, payload queue.ImageCleanupPayload) error
}

// Deps wires the service's collaborators. Views, Notifier and Geocoder may be nil.
type Deps struct {
	Store    Store
	Users    UserLookup
	Images   storage.ImageStore
	Geocoder geo.Geocoder
	Views    ViewTracker
	Notifier Broadcaster
}

// Service implements the event lifecycle.
type Service struct {
	store         Store
	users         UserLookup
	images        storage.ImageStore
	geocoder      geo.Geocoder
	views         ViewTracker
	notifier      Broadcaster
	cleanup       CleanupQueue
	maxImageBytes int64
	loc           *time.Location
	now           func() time.Time
	logger        *zap.Logger
}

// NewService creates an event service.
func NewService(d Deps, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := d.Geocoder
	if g == nil {
		g = geo.Nop{}
	}
	return &Service{
		store:    d.Store,
		users:    d.Users,
		images:   d.Images,
		geocoder: g,
		views:    d.Views,
		notifier: d.Notifier,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// SetCleanupQueue enables retrying failed image deletions in the worker.
func (s *Service) SetCleanupQueue(q CleanupQueue) { s.cleanup = q }

// SetMaxImageBytes caps accepted image uploads; zero means no cap.
func (s *Service) SetMaxImageBytes(n int64) { s.maxImageBytes = n }

func (s *Service) clock() time.Time { return s.now().In(s.loc) }

// Create stores a new event organized by user. Verified organizers are auto-approved.
func (s *Service) Create(ctx context.Context, user *models.User, in Input) (*models.EventDetail, error) {
	if err := in.validateCreate(); err != nil {
		return nil, err
	}
	e := &models.Event{
		Title:             *in.Title,
		Description:       *in.Description,
		Location:          *in.Location,
		Category:          *in.Category,
		Type:              models.EventTypeFree,
		StartDate:         *in.StartDate,
		EndDate:           *in.EndDate,
		RegistrationStart: *in.RegistrationStart,
		RegistrationEnd:   *in.RegistrationEnd,
		OrganizerID:       user.ID,
		IsApproved:        user.IsVerifiedOrganizer,
	}
	if in.Type != nil {
		e.Type = *in.Type
	}
	if in.Price != nil {
		e.Price = *in.Price
	}
	e.Latitude, e.Longitude = geo.Fill(ctx, s.geocoder, e.Location, in.Latitude, in.Longitude)
	if !e.HasCoordinates() {
		e.Latitude, e.Longitude = nil, nil
		s.logger.Warn("event has no coordinates", zap.String("location", e.Location))
	}

	if in.Image != nil {
		path, err := s.saveImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		e.ImagePath = &path
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("event created",
		zap.String("event_id", e.ID.String()),
		zap.String("organizer_id", user.ID.String()),
		zap.Bool("approved", e.IsApproved),
	)
	return &models.EventDetail{Event: *e, Organizer: user.ToPublic()}, nil
}

func (s *Service) saveImage(ctx context.Context, up *storage.Upload) (string, error) {
	if s.images == nil {
		return "", apperr.BadRequest("image uploads are not configured")
	}
	path, err := storage.SaveUpload(ctx, s.images, up, s.maxImageBytes)
	switch err {
	case nil:
		return path, nil
	case storage.ErrUnsupportedType, storage.ErrTooLarge:
		return "", apperr.Wrap(apperr.KindValidation, err.Error(), err)
	default:
		return "", apperr.Internal("store image", err)
	}
}

// dropImage deletes a stored image, handing failures to the cleanup queue.
func (s *Service) dropImage(ctx context.Context, path *string, reason string) {
	if path == nil || *path == "" || s.images == nil {
		return
	}
	err := s.images.Delete(ctx, *path)
	if err == nil {
		return
	}
	s.logger.Warn("image delete failed", zap.String("path", *path), zap.Error(err))
	if s.cleanup == nil {
		return
	}
	if err := s.cleanup.EnqueueImageCleanup(ctx, queue.ImageCleanupPayload{Path: *path, Reason: reason}); err != nil {
		s.logger.Error("enqueue image cleanup failed", zap.String("path", *path), zap.Error(err))
	}
}

// Get returns an event with its organizer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.EventDetail, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := s.withOrganizers(ctx, []models.Event{*e})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

// List returns events filtered by f. Now is filled from the service clock.
func (s *Service) List(ctx context.Context, f Filter) ([]models.EventDetail, error) {
	f.Now = s.clock()
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.withOrganizers(ctx, list)
}

// Search returns approved events containing query in their text fields.
func (s *Service) Search(ctx context.Context, query string) ([]models.EventDetail, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query must not be empty")
	}
	list, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.withOrganizers(ctx, list)
}

// ByOrganizer returns the events a user organizes, latest start first.
func (s *Service) ByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.EventDetail, error) {
	list, err := s.store.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	return s.withOrganizers(ctx, list)
}

// Pending returns events awaiting approval.
func (s *Service) Pending(ctx context.Context) ([]models.EventDetail, error) {
	list, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return s.withOrganizers(ctx, list)
}

// Nearby returns approved events within maxKm of the point, nearest first.
func (s *Service) Nearby(ctx context.Context, lat, lon, maxKm float64) ([]models.EventDetail, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, apperr.Validation("coordinates out of range")
	}
	if maxKm < 0 {
		return nil, apperr.Validation("max_distance must not be negative")
	}
	candidates, err := s.store.ListWithCoordinates(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.EventDetail{}
	for _, e := range candidates {
		if !e.HasCoordinates() {
			continue
		}
		d := geo.DistanceKm(lat, lon, *e.Latitude, *e.Longitude)
		if d > maxKm {
			continue
		}
		out = append(out, models.EventDetail{Event: e, Distance: &d})
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	s.logger.Debug("nearby events",
		zap.Int("candidates", len(candidates)),
		zap.Int("matched", len(out)),
		zap.Float64("max_km", maxKm),
	)
	return out, nil
}

// Details returns an event enriched for viewer, which may be nil. A known viewer's first view
// inside the dedup window increments the view counter.
func (s *Service) Details(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.EventDetail, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var viewerID *uuid.UUID
	if viewer != nil {
		viewerID = &viewer.ID
		if s.views != nil {
			first, err := s.views.Record(ctx, id, viewer.ID)
			if err != nil {
				s.logger.Warn("record view failed", zap.String("event_id", id.String()), zap.Error(err))
			} else if first {
				if e.Views, err = s.store.IncrementViews(ctx, id); err != nil {
					return nil, err
				}
			}
		}
	}
	eng, err := s.store.Engagement(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	list, err := s.withOrganizers(ctx, []models.Event{*e})
	if err != nil {
		return nil, err
	}
	d := list[0]
	d.LikesCount = &eng.Likes
	d.IsLiked = &eng.Liked
	d.IsRegistered = &eng.Registered
	return &d, nil
}

// Update applies the non-nil fields of in. Only the organizer or an admin may edit; an editor who
// is neither a verified organizer nor an admin sends the event back for approval.
func (s *Service) Update(ctx context.Context, user *models.User, id uuid.UUID, in Input) (*models.EventDetail, error) {
	if err := in.validateUpdate(); err != nil {
		return nil, err
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, ErrPartialCoordinates
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanModerate(e.OrganizerID) {
		return nil, ErrNotOwner
	}

	setString(&e.Title, in.Title)
	setString(&e.Description, in.Description)
	setString(&e.Category, in.Category)
	if in.Location != nil && *in.Location != "" {
		e.Location = *in.Location
		if in.Latitude == nil && in.Longitude == nil {
			if lat, lon, ok := s.geocoder.Resolve(ctx, e.Location); ok {
				e.Latitude, e.Longitude = &lat, &lon
			}
		}
	}
	if in.Latitude != nil && in.Longitude != nil {
		e.Latitude, e.Longitude = in.Latitude, in.Longitude
	}
	if in.Type != nil {
		e.Type = *in.Type
	}
	if in.Price != nil {
		e.Price = *in.Price
	}
	setTime(&e.StartDate, in.StartDate)
	setTime(&e.EndDate, in.EndDate)
	setTime(&e.RegistrationStart, in.RegistrationStart)
	setTime(&e.RegistrationEnd, in.RegistrationEnd)
	if err := checkOrder(e.StartDate, e.EndDate, e.RegistrationStart, e.RegistrationEnd); err != nil {
		return nil, err
	}

	var oldImage *string
	if in.Image != nil {
		path, err := s.saveImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		oldImage, e.ImagePath = e.ImagePath, &path
	}
	if !user.IsVerifiedOrganizer && !user.IsAdmin {
		e.IsApproved = false
	}
	if err := s.store.Update(ctx, e); err != nil {
		return nil, err
	}
	s.dropImage(ctx, oldImage, "replaced")
	s.logger.Info("event updated",
		zap.String("event_id", e.ID.String()),
		zap.String("editor_id", user.ID.String()),
		zap.Bool("approved", e.IsApproved),
	)
	return s.Get(ctx, e.ID)
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func setTime(dst *time.Time, v *time.Time) {
	if v != nil {
		*dst = *v
	}
}

// Delete removes an event owned by user (or any event for an admin), notifying its registrants.
func (s *Service) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanModerate(e.OrganizerID) {
		return ErrNotOwner
	}
	return s.remove(ctx, e, "deleted")
}

// Reject deletes a pending event on behalf of an admin, with the same notices as Delete.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, e, "rejected")
}

func (s *Service) remove(ctx context.Context, e *models.Event, reason string) error {
	sent, err := s.store.DeleteWithNotices(ctx, e.ID, "Event Cancelled",
		fmt.Sprintf("The event '%s' has been cancelled.", e.Title))
	if err != nil {
		return err
	}
	s.logger.Info("event removed",
		zap.String("event_id", e.ID.String()),
		zap.String("reason", reason),
		zap.Int("notified", len(sent)),
	)
	if s.notifier != nil {
		s.notifier.Broadcast(ctx, sent)
	}
	s.dropImage(ctx, e.ImagePath, "event "+reason)
	return nil
}

// Approve marks an event approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := s.store.SetApproved(ctx, id, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info("event approved", zap.String("event_id", id.String()))
	return e, nil
}

// Like records user's like of an event.
func (s *Service) Like(ctx context.Context, userID, eventID uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, eventID); err != nil {
		return err
	}
	return s.store.Like(ctx, eventID, userID)
}

// Unlike removes user's like.
func (s *Service) Unlike(ctx context.Context, userID, eventID uuid.UUID) error {
	return s.store.Unlike(ctx, eventID, userID)
}

// Report files a pending report against an event.
func (s *Service) Report(ctx context.Context, userID, eventID uuid.UUID, reason string) (*models.EventReport, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason is required")
	}
	if _, err := s.store.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	rep := &models.EventReport{EventID: eventID, UserID: userID, Reason: reason, Status: models.ReportStatusPending}
	if err := s.store.Report(ctx, rep); err != nil {
		return nil, err
	}
	s.logger.Info("event reported", zap.String("event_id", eventID.String()), zap.String("user_id", userID.String()))
	return rep, nil
}

// Dashboard builds organizer statistics for an event. Only the organizer or an admin may see it.
func (s *Service) Dashboard(ctx context.Context, user *models.User, id uuid.UUID) (*Dashboard, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanModerate(e.OrganizerID) {
		return nil, ErrDashboardOwner
	}
	eng, err := s.store.Engagement(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	regs, err := s.store.Registrations(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildDashboard(e, eng.Likes, regs, s.clock()), nil
}

// withOrganizers attaches the organizer of each event.
func (s *Service) withOrganizers(ctx context.Context, list []models.Event) ([]models.EventDetail, error) {
	out := make([]models.EventDetail, len(list))
	if len(list) == 0 {
		return out, nil
	}
	var organizers map[uuid.UUID]*models.User
	if s.users != nil {
		seen := map[uuid.UUID]bool{}
		ids := make([]uuid.UUID, 0, len(list))
		for _, e := range list {
			if !seen[e.OrganizerID] {
				seen[e.OrganizerID] = true
				ids = append(ids, e.OrganizerID)
			}
		}
		var err error
		if organizers, err = s.users.GetByIDs(ctx, ids); err != nil {
			return nil, err
		}
	}
	for i, e := range list {
		out[i] = models.EventDetail{Event: e, Organizer: organizers[e.OrganizerID].ToPublic()}
	}
	return out, nil
}
