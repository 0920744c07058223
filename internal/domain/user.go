package domain

import "time"

// User represents an account that can authenticate with email and password.
// Token fields travel in pairs: a token and its expiry are either both set
// or both NULL, and consuming a token clears the pair in the same statement
// that applies the transition it authorized.
type User struct {
	ID                    int64
	Email                 string
	Name                  string
	PasswordHash          string
	IsVerified            bool
	VerificationToken     *string
	VerificationExpiresAt *time.Time
	ResetToken            *string
	ResetExpiresAt        *time.Time
	LastLogin             *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
