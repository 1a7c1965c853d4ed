package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMissing = fmt.Errorf("token missing: %w", ErrUnauthenticated)
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrUnauthenticated)
	ErrTokenInvalid = fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	ErrTokenRevoked = fmt.Errorf("token revoked: %w", ErrUnauthenticated)
)

type CustomClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 access tokens.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoked *RevocationList
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		issuer:  "notification-hub",
		revoked: NewRevocationList(),
	}
}

func (m *TokenManager) GenerateToken(userID uint, role string) (string, error) {
	return m.generate(userID, role, time.Now())
}

func (m *TokenManager) generate(userID uint, role string, now time.Time) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		ErrorLogger.Printf("Error generating token: %v", err)
		return "", err
	}
	return tokenString, nil
}

func (m *TokenManager) ParseToken(tokenString string) (*CustomClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	if m.revoked.IsRevoked(claims.ID, time.Now()) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke makes a valid token unusable for the rest of its lifetime.
func (m *TokenManager) Revoke(tokenString string) error {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return err
	}
	m.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	return nil
}

// Validate returns the user id carried by a token. It does no I/O and is
// safe for concurrent use.
func (m *TokenManager) Validate(tokenString string) (uint, error) {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// BearerToken strips an optional "Bearer " prefix.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
