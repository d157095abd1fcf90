package auth

import "time"

// User represents an authenticated user account. Every user carries
// exactly one role; the role drives all access decisions.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	RoleID       string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
