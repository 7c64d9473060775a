package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/n4wf3l/perfume-platform-backend/internal/config"
)

// TokenTTL bounds both token validity and revocation-list retention.
const TokenTTL = 2 * time.Hour

type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Expired reports whether the expiry claim has passed. Cached claims must
// be re-checked with this on every use: the cache TTL and the token TTL
// are independent clocks.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(c.ExpiresAt.Time)
}

// GenerateToken signs a bearer token for the given admin user.
func GenerateToken(cfg *config.JWTConfig, userID int64, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken verifies a bearer token and returns its claims.
func ParseToken(cfg *config.JWTConfig, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
