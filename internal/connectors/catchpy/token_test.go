package catchpy

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

func parseClaims(t *testing.T, raw, secret string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		assert.Equal(t, jwt.SigningMethodHS256, tok.Method)
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	return claims
}

func TestSigner_Sign(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSigner("consumer-1", "s3cret", 0)
	s.now = func() time.Time { return fixed }

	raw, expiry, err := s.Sign("alice")
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(24*time.Hour), expiry)

	claims := parseClaims(t, raw, "s3cret")
	assert.Equal(t, "consumer-1", claims["consumerKey"])
	assert.Equal(t, "alice", claims["userId"])
	assert.Equal(t, "2024-03-01T12:00:00Z", claims["issuedAt"])
	assert.InDelta(t, 86400, claims["ttl"], 0)
	assert.Equal(t, []any{}, claims["override"])
}

func TestSigner_SignWithOverride(t *testing.T) {
	s := NewSigner("consumer-1", "s3cret", time.Hour)

	raw, _, err := s.Sign("admin", domain.OverrideCanImport)
	require.NoError(t, err)

	claims := parseClaims(t, raw, "s3cret")
	assert.Equal(t, []any{"CAN_IMPORT"}, claims["override"])
	assert.InDelta(t, 3600, claims["ttl"], 0)
}

func TestSigner_MissingCredentials(t *testing.T) {
	_, _, err := NewSigner("", "s3cret", 0).Sign("admin")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, _, err = NewSigner("key", "", 0).Sign("admin")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestTokenProvider_CachesToken(t *testing.T) {
	p := NewTokenProvider("consumer-1", "s3cret", "", 0)
	minted := 0
	base := time.Now()
	p.signer.now = func() time.Time {
		minted++
		return base.Add(time.Duration(minted) * time.Second)
	}

	first, err := p.GetToken(context.Background())
	require.NoError(t, err)
	second, err := p.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, minted)
	assert.Equal(t, "admin", p.Actor())
	assert.Equal(t, "admin", parseClaims(t, first, "s3cret")["userId"])
}

func TestTokenProvider_ReMintsAfterExpiry(t *testing.T) {
	p := NewTokenProvider("consumer-1", "s3cret", "admin", time.Minute)
	minted := 0
	p.signer.now = func() time.Time {
		minted++
		// Tokens issued an hour ago are already expired.
		return time.Now().Add(-time.Hour)
	}

	_, err := p.GetToken(context.Background())
	require.NoError(t, err)
	_, err = p.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, minted)
}

func TestTokenProvider_CancelledContext(t *testing.T) {
	p := NewTokenProvider("consumer-1", "s3cret", "admin", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GetToken(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
