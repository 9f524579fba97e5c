package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/storage"
)

func TestStorage_Auth(t *testing.T) {
	ctx := context.Background()
	s := createTestStorage(t)

	_, err := s.GetAuth(ctx)
	require.ErrorIs(t, err, storage.ErrAuthNotFound)

	auth := &storage.AuthData{
		ServerURL: "http://localhost:8080",
		Token:     "token",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, s.SaveAuth(ctx, auth))

	got, err := s.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth, got)

	require.NoError(t, s.DeleteAuth(ctx))

	_, err = s.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	err = s.DeleteAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestStorage_IsAuthenticated(t *testing.T) {
	tests := []struct {
		auth *storage.AuthData
		name string
		want bool
	}{
		{
			name: "no auth",
			want: false,
		},
		{
			name: "valid token",
			auth: &storage.AuthData{Token: "t", ExpiresAt: time.Now().Add(time.Hour).Unix()},
			want: true,
		},
		{
			name: "token without expiry",
			auth: &storage.AuthData{Token: "t"},
			want: true,
		},
		{
			name: "expired token",
			auth: &storage.AuthData{Token: "t", ExpiresAt: time.Now().Add(-time.Hour).Unix()},
			want: false,
		},
		{
			name: "empty token",
			auth: &storage.AuthData{ServerURL: "http://localhost"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := createTestStorage(t)

			if tt.auth != nil {
				require.NoError(t, s.SaveAuth(ctx, tt.auth))
			}

			got, err := s.IsAuthenticated(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
