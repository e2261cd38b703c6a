package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails parsing or verification
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user id in the subject and the user's roles
type Claims struct {
	Roles []models.Role `json:"roles"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject: %v", ErrInvalidToken, err)
	}
	return id, nil
}

// HasRole reports whether role is among the claimed roles
func (c *Claims) HasRole(role models.Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NewToken signs an HS256 token for user valid for ttl from now
func NewToken(secret []byte, user *models.User, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, algorithm and expiry
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
