package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisTokenStore_InvalidURL(t *testing.T) {
	_, err := NewRedisTokenStore(context.Background(), "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid REDIS_URL")
}

// Needs a disposable Redis, e.g. TEST_REDIS_URL=redis://localhost:6379/15
func TestRedisTokenStore(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := NewRedisTokenStore(ctx, redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	jti := uuid.NewString()
	revoked, err := store.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, jti, time.Second))
	revoked, err = store.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, store.Revoke(ctx, "never-stored", 0))
	revoked, err = store.IsRevoked(ctx, "never-stored")
	require.NoError(t, err)
	assert.False(t, revoked, "expired tokens are not stored")

	assert.Eventually(t, func() bool {
		revoked, err := store.IsRevoked(ctx, jti)
		return err == nil && !revoked
	}, 5*time.Second, 100*time.Millisecond, "revocations expire with the token")
}
