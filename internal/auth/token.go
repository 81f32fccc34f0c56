package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultKeyID is the kid used when a single secret is configured.
const DefaultKeyID = "default"

// ErrInvalidToken is returned for any cookie value that does not verify.
var ErrInvalidToken = errors.New("invalid session token")

// TokenManager signs and validates the session cookie value. The cookie only
// carries identifiers; the server-side session record is authoritative.
type TokenManager struct {
	keys      map[string][]byte // kid -> HMAC secret; old kids stay here to verify rotated cookies
	activeKid string            // kid used to sign new cookies
}

// Claims is the cookie payload (session id + user id).
type Claims struct {
	SessionID            string `json:"sid"` // transport session id
	UserID               string `json:"uid"` // MongoDB ObjectID as hex
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt
}

// NewTokenManager returns a TokenManager with a single secret.
func NewTokenManager(secret string) *TokenManager {
	return NewTokenManagerFromKeys(map[string]string{DefaultKeyID: secret}, DefaultKeyID)
}

// NewTokenManagerFromKeys returns a TokenManager that signs with activeKid and
// verifies with any of keys.
func NewTokenManagerFromKeys(keys map[string]string, activeKid string) *TokenManager {
	m := &TokenManager{keys: make(map[string][]byte, len(keys)), activeKid: activeKid}
	for kid, secret := range keys {
		m.keys[kid] = []byte(secret)
	}
	return m
}

// GenerateToken issues a signed cookie value for a session.
func (m *TokenManager) GenerateToken(sessionID, userID string, expiresAt time.Time) (string, error) {
	secret, ok := m.keys[m.activeKid]
	if !ok {
		return "", fmt.Errorf("no key for active kid %q", m.activeKid)
	}

	claims := &Claims{
		SessionID: sessionID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	// HS256; kid tells VerifyToken which secret to use after rotation
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = m.activeKid

	return token.SignedString(secret)
}

// VerifyToken parses and validates a cookie value and returns its claims.
func (m *TokenManager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Reject anything not signed with HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			kid = DefaultKeyID
		}
		secret, ok := m.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
