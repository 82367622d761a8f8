package auth

import (
	"context"
	"fmt"

	"Marketplace/internal/apperr"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier проверяет токены по JWKS провайдера (discovery через issuer).
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier выполняет discovery; ctx ограничивает только этот вызов.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	if issuer == "" {
		return nil, fmt.Errorf("oidc issuer is empty")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init oidc provider: %w", err)
	}
	cfg := &oidc.Config{ClientID: clientID}
	if clientID == "" {
		cfg.SkipClientIDCheck = true
	}
	return &OIDCVerifier{verifier: provider.Verifier(cfg)}, nil
}

// NewOIDCVerifierFromKeys — вариант без discovery, с заранее известным набором ключей.
func NewOIDCVerifierFromKeys(issuer, clientID string, keys oidc.KeySet) *OIDCVerifier {
	cfg := &oidc.Config{ClientID: clientID, SkipClientIDCheck: clientID == ""}
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keys, cfg)}
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("missing bearer token", ErrMissingToken)
	}
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		// JWKS не удалось получить вовремя, это не вина клиента
		if apperr.IsTimeout(err) {
			return nil, apperr.Wrap(apperr.KindUnavailable, "identity provider unavailable", err)
		}
		return nil, apperr.Unauthenticated("invalid token", err)
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperr.Unauthenticated("invalid token claims", err)
	}
	if idToken.Subject == "" {
		return nil, apperr.Unauthenticated("token has no subject", nil)
	}
	email, _ := claims["email"].(string)
	return &Identity{
		Subject:   idToken.Subject,
		Email:     email,
		Name:      displayName(claims),
		ExpiresAt: idToken.Expiry,
		Claims:    claims,
	}, nil
}
