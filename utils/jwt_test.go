package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-0123456789"

func TestTokenManager_Validate(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	token, err := m.GenerateToken(42, "staff")
	require.NoError(t, err)

	userID, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_Failures(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	expired, err := m.generate(7, "user", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	foreign, err := NewTokenManager("another-secret-0123456789", time.Hour).GenerateToken(7, "user")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "missing", token: "", wantErr: ErrTokenMissing},
		{name: "blank", token: "   ", wantErr: ErrTokenMissing},
		{name: "malformed", token: "not-a-jwt", wantErr: ErrTokenInvalid},
		{name: "expired", token: expired, wantErr: ErrTokenExpired},
		{name: "wrong secret", token: foreign, wantErr: ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := m.Validate(tt.token)
			assert.Zero(t, userID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.Is(err, ErrUnauthenticated))
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Equal(t, "abc", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "unauthenticated", ErrorCode(ErrTokenExpired))
	assert.Equal(t, "notifications_disabled", ErrorCode(ErrNotificationsDisabled))
	assert.Equal(t, "internal_error", ErrorCode(errors.New("boom")))
	assert.Equal(t, "", ErrorCode(nil))
}

func TestTokenManager_Revoke(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	token, err := m.GenerateToken(42, "user")
	require.NoError(t, err)
	other, err := m.GenerateToken(42, "user")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(token))
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Equal(t, "unauthenticated", ErrorCode(err))

	// Only the revoked token is affected.
	_, err = m.Validate(other)
	assert.NoError(t, err)

	assert.ErrorIs(t, m.Revoke("garbage"), ErrTokenInvalid)
}

func TestRevocationList_ForgetsExpiredEntries(t *testing.T) {
	l := NewRevocationList()
	now := time.Now()
	l.Revoke("old", now.Add(-time.Minute))
	assert.False(t, l.IsRevoked("old", now))

	l.Revoke("new", now.Add(time.Hour))
	assert.True(t, l.IsRevoked("new", now))
	assert.Equal(t, 1, l.Len())
}
