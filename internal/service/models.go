package service

import (
	"time"

	"github.com/lumenworks/authkit/internal/domain"
)

// UserViewModel is the sanitized user record returned to clients. The
// password hash and token fields never leave the service.
type UserViewModel struct {
	ID         int64      `json:"id,string"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	IsVerified bool       `json:"isVerified"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// AuthResult bundles a sanitized user with a freshly minted session token.
type AuthResult struct {
	User         UserViewModel
	SessionToken string
}

func newUserViewModel(user domain.User) UserViewModel {
	return UserViewModel{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		IsVerified: user.IsVerified,
		LastLogin:  user.LastLogin,
		CreatedAt:  user.CreatedAt,
	}
}
