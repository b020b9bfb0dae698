package models

import (
	"time"

	"github.com/google/uuid"
)

// IssueStatus is the moderation state of an issue.
type IssueStatus string

const (
	IssuePending  IssueStatus = "pending"
	IssueApproved IssueStatus = "approved"
	IssueResolved IssueStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	return s == IssuePending || s == IssueApproved || s == IssueResolved
}

// Issue is a locally reported civic problem.
type Issue struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	Category    string      `json:"category"`
	Status      IssueStatus `json:"status"`
	ImagePath   *string     `json:"image_path"`
	ReporterID  uuid.UUID   `json:"reporter_id"`
	IsApproved  bool        `json:"is_approved"`
	VotesCount  int         `json:"votes_count"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IssueDetail is an issue enriched for API responses.
type IssueDetail struct {
	Issue
	Reporter *UserPublic `json:"reporter,omitempty"`
	HasVoted *bool       `json:"has_voted,omitempty"`
}
