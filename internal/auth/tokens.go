package auth

import (
	"fmt"
	"time"

	"patient-intake-server/internal/config"
	"patient-intake-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and checks access and refresh tokens.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokens reads secrets and lifetimes from cfg.
func NewTokens(cfg *config.Config) *Tokens {
	return &Tokens{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     time.Duration(cfg.JWTExpirationMinutes) * time.Minute,
		refreshTTL:    time.Duration(cfg.JWTRefreshExpirationHours) * time.Hour,
		now:           time.Now,
	}
}

// RefreshTTL is how long a refresh token, and so a staff session, lasts.
func (t *Tokens) RefreshTTL() time.Duration { return t.refreshTTL }

// Issue signs a new access and refresh token pair for user.
func (t *Tokens) Issue(user *models.User) (access, refresh string, err error) {
	access, err = t.sign(user, t.accessTTL, t.accessSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err = t.sign(user, t.refreshTTL, t.refreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return access, refresh, nil
}

func (t *Tokens) sign(user *models.User, ttl time.Duration, secret []byte) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jwtID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccess validates an access token.
func (t *Tokens) ParseAccess(token string) (*Claims, error) {
	return parse(token, t.accessSecret)
}

// ParseRefresh validates a refresh token.
func (t *Tokens) ParseRefresh(token string) (*Claims, error) {
	return parse(token, t.refreshSecret)
}

func parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func jwtID() string { return uuid.New().String() }
