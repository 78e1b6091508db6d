// Package identity resolves session tokens issued by the platform's
// auth service. This core only verifies; it never issues.
package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProvider implements ports.IdentityProvider over HMAC-signed session
// tokens.
type JWTProvider struct {
	secret []byte
	log    zerolog.Logger
}

var _ ports.IdentityProvider = (*JWTProvider)(nil) // Ensure compliance

// NewJWTProvider creates the provider.
func NewJWTProvider(secret []byte, baseLogger *zerolog.Logger) *JWTProvider {
	return &JWTProvider{
		secret: secret,
		log:    baseLogger.With().Str("component", "jwt_identity").Logger(),
	}
}

// Resolve verifies the token and maps its claims to an AuthUser. Every
// failure mode collapses to domain.ErrUnauthorized: the caller gets no
// hint whether the token was absent, expired or forged.
func (p *JWTProvider) Resolve(ctx context.Context, token string) (domain.AuthUser, error) {
	if token == "" {
		return domain.AuthUser{}, domain.ErrUnauthorized
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		p.log.Debug().Err(err).Msg("Session token rejected")
		return domain.AuthUser{}, domain.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		p.log.Warn().Str("sub", claims.Subject).Msg("Session token carries a malformed subject")
		return domain.AuthUser{}, domain.ErrUnauthorized
	}

	role := domain.Role(claims.Role)
	if !role.Valid() {
		p.log.Warn().Str("role", claims.Role).Msg("Session token carries an unknown role")
		return domain.AuthUser{}, domain.ErrUnauthorized
	}

	return domain.AuthUser{ID: userID, Email: claims.Email, Role: role}, nil
}
