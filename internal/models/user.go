package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleAdmin is the only role kept in role_assignments.
const RoleAdmin = "admin"

// User is a platform user mirrored from the identity provider.
type User struct {
	ID                  uuid.UUID `json:"id"`
	ClerkID             string    `json:"clerk_id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone,omitempty"`
	IsAdmin             bool      `json:"is_admin"`
	IsVerifiedOrganizer bool      `json:"is_verified_organizer"`
	IsBanned            bool      `json:"is_banned"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// UserPublic is the organizer/reporter view embedded in event and issue responses.
type UserPublic struct {
	ID                  uuid.UUID `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone,omitempty"`
	IsAdmin             bool      `json:"is_admin"`
	IsVerifiedOrganizer bool      `json:"is_verified_organizer"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() *UserPublic {
	if u == nil {
		return nil
	}
	return &UserPublic{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Phone:               u.Phone,
		IsAdmin:             u.IsAdmin,
		IsVerifiedOrganizer: u.IsVerifiedOrganizer,
	}
}

// CanModerate reports whether u may edit or delete content owned by ownerID.
func (u *User) CanModerate(ownerID uuid.UUID) bool {
	return u != nil && (u.IsAdmin || u.ID == ownerID)
}
