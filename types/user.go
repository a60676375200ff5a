package types

import (
	"context"
	"time"
)

const (
	RoleAdmin       = "admin"
	RoleEditor      = "editor"
	RoleContributor = "contributor"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthToken struct {
	AccessToken  string `json:"access_token"`
	ExpiredIn    int    `json:"expired_in"`
	RefreshToken string `json:"refresh_token"`
}

// UserService is the account collaborator used by the admin filter and the
// login endpoints.
type UserService interface {
	FindByCredential(ctx context.Context, reference string) (*User, bool, error)
	First(ctx context.Context) (*User, bool, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
}
