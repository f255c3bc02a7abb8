package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"billed/internal/core"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Issuer signs session tokens for users authenticated by a local backend.
type Issuer struct {
	secretKey []byte
	ttl       time.Duration
}

// Claims are the custom claims of a session token.
type Claims struct {
	Email string        `json:"email"`
	Type  core.UserType `json:"type"`
	jwt.RegisteredClaims
}

func NewIssuer(secretKey string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secretKey: []byte(secretKey), ttl: ttl}
}

// Issue creates a signed token for the given user.
func (i *Issuer) Issue(email string, userType core.UserType) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Type:  userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a token issued by Issue.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
