package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lumenworks/authkit/internal/domain"
)

// ErrDuplicateEmail reports a violation of the unique email constraint.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository exposes persistence for user records. Lookups that match
// nothing surface pgx.ErrNoRows (wrapped).
//
// The Consume* operations are atomic conditional updates: they apply the
// state transition and clear the token pair in one statement, so of two
// racing attempts with the same token at most one succeeds.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (domain.User, error)
	SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (domain.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
}
