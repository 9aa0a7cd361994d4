// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id1 := NewID()
	id2 := NewID()

	_, err := uuid.Parse(id1)
	assert.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestMintVoterID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := MintVoterID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate voter id %s", id)
		seen[id] = true
	}
}

func TestGenerateInviteToken(t *testing.T) {
	token, err := GenerateInviteToken()
	require.NoError(t, err)

	// 24 bytes base64 encoded without padding = 32 chars
	assert.Len(t, token, 32)
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	other, err := GenerateInviteToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestLinks(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"invite", InviteURL("https://score.example", "tok"), "https://score.example/invite/tok"},
		{"invite trailing slash", InviteURL("https://score.example/", "tok"), "https://score.example/invite/tok"},
		{"share", ShareURL("https://score.example", "ev1"), "https://score.example/sala/ev1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestProvider_RoundTrip(t *testing.T) {
	p := NewProvider("test-secret")

	token, err := p.GenerateToken("admin-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	adminID, err := p.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", adminID)
}

func TestProvider_Rejects(t *testing.T) {
	p := NewProvider("test-secret")

	expired, err := p.GenerateToken("admin-1", -time.Minute)
	require.NoError(t, err)

	foreign, err := NewProvider("other-secret").GenerateToken("admin-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"expired", expired, ErrExpiredToken},
		{"wrong secret", foreign, ErrInvalidSignature},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"empty", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProvider_RequiresAdminID(t *testing.T) {
	_, err := NewProvider("s").GenerateToken("", time.Hour)
	assert.Error(t, err)
}
