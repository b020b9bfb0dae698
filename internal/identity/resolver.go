package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

// TokenVerifier validates a session token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// UserStore is the persistence the resolver needs.
type UserStore interface {
	GetByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateProfile(ctx context.Context, u *models.User) error
	SetBannedByClerkID(ctx context.Context, clerkID string, banned bool) error
	HasRole(ctx context.Context, email, role string) (bool, error)
	SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error
}

// Resolver maps provider credentials and webhook events onto local users.
type Resolver struct {
	verifier TokenVerifier
	users    UserStore
	profiles ProfileSource
	logger   *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(verifier TokenVerifier, users UserStore, profiles ProfileSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{verifier: verifier, users: users, profiles: profiles, logger: logger}
}

// Resolve returns the local user for token, provisioning it on first sight.
// Invalid tokens are Unauthenticated, banned users Forbidden.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := r.verifier.Verify(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "invalid or expired token", err)
	}

	u, err := r.users.GetByClerkID(ctx, claims.Subject)
	switch {
	case apperr.KindOf(err) == apperr.KindNotFound:
		u, err = r.provision(ctx, claims.Subject)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		r.applyRoles(ctx, u)
	}

	if u.IsBanned {
		return nil, apperr.Forbidden("account is banned")
	}
	return u, nil
}

// ResolveOptional returns the known, unbanned user for token, or nil. It never provisions.
func (r *Resolver) ResolveOptional(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}
	claims, err := r.verifier.Verify(ctx, token)
	if err != nil {
		r.logger.Debug("optional identity ignored", zap.Error(err))
		return nil
	}
	u, err := r.users.GetByClerkID(ctx, claims.Subject)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			r.logger.Warn("optional identity lookup failed", zap.String("clerk_id", claims.Subject), zap.Error(err))
		}
		return nil
	}
	if u.IsBanned {
		return nil
	}
	r.applyRoles(ctx, u)
	return u
}

func (r *Resolver) provision(ctx context.Context, subject string) (*models.User, error) {
	p, err := r.profiles.FetchProfile(ctx, subject)
	if err != nil {
		r.logger.Error("fetch identity profile failed", zap.String("clerk_id", subject), zap.Error(err))
		return nil, apperr.Internal("fetch identity profile", err)
	}
	p.ID = subject
	return r.create(ctx, p)
}

func (r *Resolver) create(ctx context.Context, p *Profile) (*models.User, error) {
	if p.Email == "" {
		return nil, apperr.Unauthenticated("identity profile has no email address")
	}
	u := &models.User{
		ClerkID:  p.ID,
		Username: p.Username,
		Email:    strings.ToLower(p.Email),
		Phone:    p.Phone,
	}
	if u.Username == "" {
		u.Username = "user_" + p.ID
	}
	if ok, err := r.users.HasRole(ctx, u.Email, models.RoleAdmin); err == nil {
		u.IsAdmin = ok
	} else {
		r.logger.Warn("role lookup failed", zap.String("email", u.Email), zap.Error(err))
	}

	err := r.users.Create(ctx, u)
	if apperr.KindOf(err) == apperr.KindConflict {
		// concurrent first request for the same subject
		return r.users.GetByClerkID(ctx, p.ID)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("user provisioned", zap.String("user_id", u.ID.String()), zap.String("clerk_id", u.ClerkID), zap.Bool("is_admin", u.IsAdmin))
	return u, nil
}

// applyRoles promotes u when its email holds the admin role. It never demotes.
func (r *Resolver) applyRoles(ctx context.Context, u *models.User) {
	if u.IsAdmin {
		return
	}
	ok, err := r.users.HasRole(ctx, u.Email, models.RoleAdmin)
	if err != nil {
		r.logger.Warn("role lookup failed", zap.String("email", u.Email), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if err := r.users.SetAdmin(ctx, u.ID, true); err != nil {
		r.logger.Warn("promote admin failed", zap.String("user_id", u.ID.String()), zap.Error(err))
		return
	}
	u.IsAdmin = true
	r.logger.Info("user promoted to admin", zap.String("user_id", u.ID.String()))
}

// SyncProfile upserts the user described by a provider profile.
func (r *Resolver) SyncProfile(ctx context.Context, p *Profile) (*models.User, error) {
	u, err := r.users.GetByClerkID(ctx, p.ID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return r.create(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	if p.Username != "" {
		u.Username = p.Username
	}
	if p.Email != "" {
		u.Email = strings.ToLower(p.Email)
	}
	if p.Phone != "" {
		u.Phone = p.Phone
	}
	if err := r.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	r.applyRoles(ctx, u)
	return u, nil
}

// Deactivate bans the user mirrored from clerkID. Unknown users are ignored.
func (r *Resolver) Deactivate(ctx context.Context, clerkID string) error {
	err := r.users.SetBannedByClerkID(ctx, clerkID, true)
	if apperr.KindOf(err) == apperr.KindNotFound {
		r.logger.Info("deactivate for unknown user ignored", zap.String("clerk_id", clerkID))
		return nil
	}
	return err
}
