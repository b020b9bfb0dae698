package issues

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/geo"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/queue"
	"github.com/Captain-Rohith/CommunityPulse/pkg/storage"
)

var (
	ErrAlreadyVoted = apperr.Conflict("already voted for this issue")
	ErrVoteNotFound = apperr.NotFound("vote not found")
)

// Filter selects issues for List.
type Filter struct {
	Category     string
	Status       models.IssueStatus
	ApprovedOnly bool
}

// Input is the create request.
type Input struct {
	Title       string
	Description string
	Location    string
	Category    string
	Latitude    *float64
	Longitude   *float64
	Image       *storage.Upload
}

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, i *models.Issue) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error)
	List(ctx context.Context, f Filter) ([]models.Issue, error)
	ListPending(ctx context.Context) ([]models.Issue, error)
	VotedBy(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	Vote(ctx context.Context, issueID, userID uuid.UUID) (int, error)
	Unvote(ctx context.Context, issueID, userID uuid.UUID) (int, error)
	SetModeration(ctx context.Context, id uuid.UUID, approved bool, status models.IssueStatus) (*models.Issue, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Issue, error)
}

// UserLookup loads users by id.
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error)
}

// CleanupQueue receives images whose in-request deletion failed.
type CleanupQueue interface {
	EnqueueImageCleanup(ctx context.Context, payload queue.ImageCleanupPayload) error
}

// Service implements the issue lifecycle.
type Service struct {
	store         Store
	users         UserLookup
	images        storage.ImageStore
	geocoder      geo.Geocoder
	cleanup       CleanupQueue
	maxImageBytes int64
	logger        *zap.Logger
}

// NewService creates an issue service. images and geocoder may be nil.
func NewService(store Store, users UserLookup, images storage.ImageStore, geocoder geo.Geocoder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if geocoder == nil {
		geocoder = geo.Nop{}
	}
	return &Service{store: store, users: users, images: images, geocoder: geocoder, logger: logger}
}

// SetCleanupQueue enables retrying failed image deletions in the worker.
func (s *Service) SetCleanupQueue(q CleanupQueue) { s.cleanup = q }

// SetMaxImageBytes caps accepted image uploads; zero means no cap.
func (s *Service) SetMaxImageBytes(n int64) { s.maxImageBytes = n }

// Create files a new issue. Reports from verified organizers are approved immediately.
func (s *Service) Create(ctx context.Context, user *models.User, in Input) (*models.IssueDetail, error) {
	for _, f := range [][2]string{
		{"title", in.Title}, {"description", in.Description}, {"location", in.Location}, {"category", in.Category},
	} {
		if strings.TrimSpace(f[1]) == "" {
			return nil, apperr.Validation(f[0] + " is required")
		}
	}
	i := &models.Issue{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Category:    in.Category,
		Status:      models.IssuePending,
		ReporterID:  user.ID,
	}
	if user.IsVerifiedOrganizer {
		i.IsApproved = true
		i.Status = models.IssueApproved
	}
	i.Latitude, i.Longitude = geo.Fill(ctx, s.geocoder, i.Location, in.Latitude, in.Longitude)
	if i.Latitude == nil || i.Longitude == nil {
		i.Latitude, i.Longitude = nil, nil
	}
	if in.Image != nil {
		if s.images == nil {
			return nil, apperr.BadRequest("image uploads are not configured")
		}
		path, err := storage.SaveUpload(ctx, s.images, in.Image, s.maxImageBytes)
		switch err {
		case nil:
			i.ImagePath = &path
		case storage.ErrUnsupportedType, storage.ErrTooLarge:
			return nil, apperr.Wrap(apperr.KindValidation, err.Error(), err)
		default:
			return nil, apperr.Internal("store image", err)
		}
	}
	if err := s.store.Create(ctx, i); err != nil {
		return nil, err
	}
	s.logger.Info("issue created",
		zap.String("issue_id", i.ID.String()),
		zap.String("reporter_id", user.ID.String()),
		zap.Bool("approved", i.IsApproved),
	)
	return &models.IssueDetail{Issue: *i, Reporter: user.ToPublic()}, nil
}

// List returns issues matching f. has_voted is set when viewer is known.
func (s *Service) List(ctx context.Context, viewer *models.User, f Filter) ([]models.IssueDetail, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown status")
	}
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, viewer, list)
}

// Pending returns issues awaiting approval.
func (s *Service) Pending(ctx context.Context) ([]models.IssueDetail, error) {
	list, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, nil, list)
}

// Get returns one issue for viewer, which may be nil.
func (s *Service) Get(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.IssueDetail, error) {
	i, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := s.decorate(ctx, viewer, []models.Issue{*i})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *Service) decorate(ctx context.Context, viewer *models.User, list []models.Issue) ([]models.IssueDetail, error) {
	out := make([]models.IssueDetail, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(list))
	reporterIDs := make([]uuid.UUID, 0, len(list))
	seen := map[uuid.UUID]bool{}
	for i, is := range list {
		ids[i] = is.ID
		if !seen[is.ReporterID] {
			seen[is.ReporterID] = true
			reporterIDs = append(reporterIDs, is.ReporterID)
		}
	}
	var reporters map[uuid.UUID]*models.User
	if s.users != nil {
		var err error
		if reporters, err = s.users.GetByIDs(ctx, reporterIDs); err != nil {
			return nil, err
		}
	}
	var voted map[uuid.UUID]bool
	if viewer != nil {
		var err error
		if voted, err = s.store.VotedBy(ctx, viewer.ID, ids); err != nil {
			return nil, err
		}
	}
	for i, is := range list {
		out[i] = models.IssueDetail{Issue: is, Reporter: reporters[is.ReporterID].ToPublic()}
		if viewer != nil {
			v := voted[is.ID]
			out[i].HasVoted = &v
		}
	}
	return out, nil
}

// Vote records the user's vote and returns the new count.
func (s *Service) Vote(ctx context.Context, userID, issueID uuid.UUID) (int, error) {
	n, err := s.store.Vote(ctx, issueID, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("issue vote", zap.String("issue_id", issueID.String()), zap.Int("votes", n))
	return n, nil
}

// Unvote removes the user's vote and returns the new count.
func (s *Service) Unvote(ctx context.Context, userID, issueID uuid.UUID) (int, error) {
	return s.store.Unvote(ctx, issueID, userID)
}

// Approve publishes an issue.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	i, err := s.store.SetModeration(ctx, id, true, models.IssueApproved)
	if err != nil {
		return nil, err
	}
	s.logger.Info("issue approved", zap.String("issue_id", id.String()))
	return i, nil
}

// Resolve marks an issue resolved. Resolved issues stay visible.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	cur, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	i, err := s.store.SetModeration(ctx, id, cur.IsApproved, models.IssueResolved)
	if err != nil {
		return nil, err
	}
	s.logger.Info("issue resolved", zap.String("issue_id", id.String()))
	return i, nil
}

// Reject deletes an issue with its votes.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	i, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info("issue rejected", zap.String("issue_id", id.String()))
	s.dropImage(ctx, i.ImagePath)
	return nil
}

func (s *Service) dropImage(ctx context.Context, path *string) {
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
	if err := s.cleanup.EnqueueImageCleanup(ctx, queue.ImageCleanupPayload{Path: *path, Reason: "issue rejected"}); err != nil {
		s.logger.Error("enqueue image cleanup failed", zap.String("path", *path), zap.Error(err))
	}
}
