// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is the authorization role carried by every account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleCadet Role = "cadet"
)

// Status is the standing of a member. Members are never deleted, only moved to alumni.
type Status string

const (
	StatusActive Status = "active"
	StatusAlumni Status = "alumni"
)

// DefaultRank is assigned to newly provisioned cadets.
const DefaultRank = "Cadet"

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// Caller is the authenticated identity performing an operation.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// User represents a member account. TotalPoints is owned by the attendance ledger.
type User struct {
	ID                 uuid.UUID // PK, issued at provisioning
	Email              string    // unique login name
	Role               Role
	Status             Status
	TotalPoints        int64 // sum of point log entries of existing sessions
	FullName           string
	RegisterNumber     string
	Year               string
	Department         string
	Phone              string
	Wing               string
	Squad              string
	Rank               string
	MustChangePassword bool
	PwdHash            []byte // Argon2id(password, SaltAuth)
	SaltAuth           []byte // per-user auth salt
	CreatedAt          time.Time
}

// NewMember is the provisioning input for a new account.
type NewMember struct {
	Email          string `json:"email" validate:"required,email"`
	Role           Role   `json:"role" validate:"required,oneof=admin cadet"`
	FullName       string `json:"full_name" validate:"required"`
	RegisterNumber string `json:"register_number" validate:"required_if=Role cadet"`
	Year           string `json:"year" validate:"required_if=Role cadet"`
	Department     string `json:"department" validate:"required_if=Role cadet"`
	Phone          string `json:"phone" validate:"required"`
	Wing           string `json:"wing"`
	Squad          string `json:"squad"`
}

// ProfileUpdate carries editable profile fields. Role, status and points are not editable here.
type ProfileUpdate struct {
	FullName       string `json:"full_name" validate:"required"`
	RegisterNumber string `json:"register_number"`
	Year           string `json:"year"`
	Department     string `json:"department"`
	Phone          string `json:"phone"`
	Wing           string `json:"wing"`
	Squad          string `json:"squad"`
	Rank           string `json:"rank"`
}
