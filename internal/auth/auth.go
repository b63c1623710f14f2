// Package auth resolves the caller of an API request from a signed JWT. The
// token is issued by an external identity provider; this package only
// verifies it and provisions the matching progression record.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ratwatch/sighting-api/internal/config"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
)

const TokenDuration = 24 * time.Hour

// UserProvisioner maps an identity subject to a local user, creating it on
// first sight.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, subject, username string) (*models.User, error)
}

type AuthHandler struct {
	users UserProvisioner
	cfg   *config.Config
	log   *logger.Logger
}

func NewAuthHandler(cfg *config.Config, users UserProvisioner, baseLog *logger.Logger) *AuthHandler {
	return &AuthHandler{
		users: users,
		cfg:   cfg,
		log:   logger.OrNop(baseLog).With("component", "auth"),
	}
}

// GenerateToken signs a session token for subject.
func (h *AuthHandler) GenerateToken(subject, username string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"name": username,
		"exp":  time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

func (h *AuthHandler) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

type contextKey string

const UserIDKey contextKey = "user_id"

// UserIDFromContext returns the user the middleware authenticated.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDKey).(uint)
	return id, ok && id != 0
}
