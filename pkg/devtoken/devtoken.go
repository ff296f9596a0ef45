// Package devtoken signs HS256 tokens that the API's JWT middleware accepts.
// It exists for local tooling; production tokens come from the identity provider.
package devtoken

import (
	"time"

	"venuely/internal/shared/config"

	"github.com/golang-jwt/jwt/v4"
)

func Sign(cfg config.JWTConfig, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	if cfg.Issuer != "" {
		claims["iss"] = cfg.Issuer
	}
	if cfg.Audience != "" {
		claims["aud"] = cfg.Audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}
