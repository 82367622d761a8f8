package auth

import (
	"context"
	"errors"
	"time"

	"Marketplace/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier проверяет HS256-токены провайдера общим секретом.
// Внешних вызовов нет, проверка целиком локальная.
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewJWTVerifier: issuer и audience проверяются, только если заданы.
func NewJWTVerifier(secret, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, audience: audience, leeway: 5 * time.Second}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("missing bearer token", ErrMissingToken)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expired"
		}
		return nil, apperr.Unauthenticated(msg, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, apperr.Unauthenticated("token has no subject", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, apperr.Unauthenticated("token has no expiry", err)
	}

	email, _ := claims["email"].(string)
	return &Identity{
		Subject:   sub,
		Email:     email,
		Name:      displayName(claims),
		ExpiresAt: exp.Time,
		Claims:    map[string]any(claims),
	}, nil
}
