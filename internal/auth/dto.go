package auth

import (
	"github.com/olivergrant/ibts-backend/internal/users"
)

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the minted access token and the authenticated user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}
