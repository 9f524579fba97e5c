package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the document server credentials on client
type AuthStorage interface {
	// SaveAuth stores authentication data
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data.
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if a token exists and is not expired
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents the document server connection stored on the device
type AuthData struct {
	ServerURL string `json:"server_url"` // адрес документного сервера
	Token     string `json:"token"`      // JWT access token
	ExpiresAt int64  `json:"expires_at"` // unix time истечения токена; 0 = бессрочно
}

// Expired reports whether the token is past its expiry at now.
func (a *AuthData) Expired(now time.Time) bool {
	return a.ExpiresAt != 0 && !now.Before(time.Unix(a.ExpiresAt, 0))
}
