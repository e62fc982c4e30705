package domain

import (
	"context"
	"errors"
	"time"

	"github.com/messismo/bar/internal/actorctx"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*actorctx.Actor, error)
	EnsureAdmin(ctx context.Context, req RegisterRequest) error

	Get(ctx context.Context, id string) (*UserResponse, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByClientID(ctx context.Context, clientID string) (*User, error)
	ListClients(ctx context.Context) ([]ClientResponse, error)
	ClientProfile(ctx context.Context, email string) (*ClientProfile, error)
	UpdateRole(ctx context.Context, id string, role string) (*UserResponse, error)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Employee bool   `json:"employee"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ClientID  *string   `json:"client_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ClientResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	ClientID string `json:"client_id"`
}

// ClientProfile is the self view of a client, including the live balance.
type ClientProfile struct {
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	ClientID      string  `json:"client_id"`
	CurrentPoints float64 `json:"current_points"`
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrUserExists         = errors.New("user_exists")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrClientNotFound     = errors.New("client_not_found")
	ErrForbiddenRole      = errors.New("forbidden_role")
	ErrClientIDExhausted  = errors.New("client_id_exhausted")
)
