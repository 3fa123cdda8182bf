package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSecret is returned when the service is constructed without a
// signing secret. This is fatal at startup, never per request.
var ErrNoSecret = errors.New("token signing secret is not configured")

// Reason tags an invalid verification result.
type Reason string

const (
	ReasonMissing      Reason = "missing"
	ReasonMalformed    Reason = "malformed"
	ReasonExpired      Reason = "expired"
	ReasonBadSignature Reason = "bad-signature"
)

// Identity is the user identity carried inside a token.
type Identity struct {
	Username string
	UserID   string
}

// VerifyResult is the tagged outcome of TokenService.Verify. Callers
// must branch on Valid; verification never raises past this boundary.
type VerifyResult struct {
	Valid    bool
	Identity Identity
	Reason   Reason
}

// Claims is the signed token payload. A syntactically valid JWT whose
// payload does not carry both the username and the user id is rejected
// as malformed.
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens. Verification is
// local, no I/O involved.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for the given identity with the configured expiry.
func (s *TokenService) Issue(identity Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: identity.Username,
		UserID:   identity.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns a tagged result.
func (s *TokenService) Verify(raw string) VerifyResult {
	if raw == "" {
		return VerifyResult{Reason: ReasonMissing}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return VerifyResult{Reason: ReasonExpired}
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return VerifyResult{Reason: ReasonBadSignature}
		default:
			return VerifyResult{Reason: ReasonMalformed}
		}
	}
	if !token.Valid {
		return VerifyResult{Reason: ReasonMalformed}
	}
	// Reject well-signed tokens with a wrong-shape payload.
	if claims.Username == "" || claims.UserID == "" {
		return VerifyResult{Reason: ReasonMalformed}
	}

	return VerifyResult{
		Valid: true,
		Identity: Identity{
			Username: claims.Username,
			UserID:   claims.UserID,
		},
	}
}

const bearerScheme = "bearer "

// ExtractBearer pulls the raw token out of an Authorization header
// value. The scheme prefix is matched case-insensitively. Returns false
// when the header is absent or carries another scheme.
func ExtractBearer(header string) (string, bool) {
	if len(header) < len(bearerScheme) {
		return "", false
	}
	if !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerScheme):]), true
}
