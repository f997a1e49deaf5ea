package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// RefreshTokenType marks refresh token claims.
const RefreshTokenType = "refresh"

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token pair and the first-login marker so
// the front end can force a password change before anything else.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	FirstLogin   bool   `json:"firstLogin"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	UserID       string `json:"userId" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest payload for updating the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpw"`
}

// SuccessResponse is the body for operations that only acknowledge.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// AccessClaims is the JWT payload for access tokens. Active and FirstLogin
// are snapshots taken at issuance time; the account-state guard reads them
// instead of hitting the store on every request.
type AccessClaims struct {
	Username   string   `json:"username"`
	Role       UserRole `json:"role"`
	FirstLogin bool     `json:"firstLogin"`
	Active     bool     `json:"active"`
	jwt.RegisteredClaims
}

// RefreshClaims is the JWT payload for refresh tokens.
type RefreshClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}
