package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/printmarket/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	blacklist.Revoke("test-jti-1", time.Hour)

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, "test-jti-1")
	require.NoError(t, err)
	assert.True(t, isBlacklisted)

	isBlacklisted, err = blacklist.IsBlacklisted(ctx, "test-jti-2")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestInMemoryTokenBlacklist_ExpirationCleanup(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()

	blacklist.Revoke("test-jti-expire", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	isBlacklisted, err := blacklist.IsBlacklisted(context.Background(), "test-jti-expire")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestInMemoryTokenBlacklist_UserTokenInvalidation(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	userID := "user-123"

	issuedBefore := time.Now().Add(-time.Minute)

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, userID, issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)

	blacklist.RevokeUser(userID)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, userID, issuedBefore)
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, userID, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, invalidated)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "someone-else", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestTokenBlacklist_Implementations(t *testing.T) {
	var _ auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	var _ auth.TokenBlacklist = (*auth.RedisTokenBlacklist)(nil)
}
