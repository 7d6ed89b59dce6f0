package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dklimov/circles/internal/domain"
)

// OIDCVerifier validates OIDC ID tokens issued by an external identity
// provider and resolves them to the subject claim. Token issuance,
// registration and password handling all live with the provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier creates a verifier using OIDC discovery.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("creating OIDC provider: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify implements Verifier. The token's subject claim is the user id.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return "", domain.ErrUnauthorized
	}
	if idToken.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return idToken.Subject, nil
}
