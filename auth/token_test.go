package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_NoSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestTokenService_IssueVerifyRoundTrip(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	raw, err := svc.Issue(Identity{Username: "alice", UserID: "0001"})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	result := svc.Verify(raw)
	assert.True(t, result.Valid)
	assert.Equal(t, "alice", result.Identity.Username)
	assert.Equal(t, "0001", result.Identity.UserID)
}

func TestTokenService_VerifyMissing(t *testing.T) {
	svc, _ := NewTokenService("test-secret", time.Hour)

	result := svc.Verify("")
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonMissing, result.Reason)
}

func TestTokenService_VerifyMalformed(t *testing.T) {
	svc, _ := NewTokenService("test-secret", time.Hour)

	result := svc.Verify("not-a-jwt")
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonMalformed, result.Reason)
}

func TestTokenService_VerifyExpired(t *testing.T) {
	svc, _ := NewTokenService("test-secret", -time.Minute)
	raw, err := svc.Issue(Identity{Username: "alice", UserID: "0001"})
	require.NoError(t, err)

	result := svc.Verify(raw)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonExpired, result.Reason)
}

func TestTokenService_VerifyBadSignature(t *testing.T) {
	issuer, _ := NewTokenService("secret-one", time.Hour)
	verifier, _ := NewTokenService("secret-two", time.Hour)

	raw, err := issuer.Issue(Identity{Username: "alice", UserID: "0001"})
	require.NoError(t, err)

	result := verifier.Verify(raw)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonBadSignature, result.Reason)
}

// A well-signed token whose payload does not carry the identity fields
// must be rejected as malformed, not accepted with empty values.
func TestTokenService_VerifyWrongShapePayload(t *testing.T) {
	svc, _ := NewTokenService("test-secret", time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	result := svc.Verify(raw)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonMalformed, result.Reason)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
		ok       bool
	}{
		{"standard", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi", true},
		{"mixed case scheme", "BeArEr abc", "abc", true},
		{"missing header", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"scheme only", "Bearer ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := ExtractBearer(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, raw)
		})
	}
}
