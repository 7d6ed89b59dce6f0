// Package auth resolves caller credentials to user ids. The service
// layer never sees a credential, only the resolved user id.
package auth

import (
	"context"
	"strings"

	"github.com/dklimov/circles/internal/domain"
)

// Verifier resolves a bearer credential to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticVerifier maps fixed tokens to user ids. It exists for tests and
// local development; production uses the OIDC verifier.
type StaticVerifier map[string]string

// Verify implements Verifier.
func (v StaticVerifier) Verify(ctx context.Context, token string) (string, error) {
	userID, ok := v[token]
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}

// ParseStaticTokens parses a "token=user_id,token=user_id" list into a
// StaticVerifier.
func ParseStaticTokens(s string) StaticVerifier {
	verifier := StaticVerifier{}
	for _, pair := range strings.Split(s, ",") {
		token, userID, found := strings.Cut(strings.TrimSpace(pair), "=")
		if found && token != "" && userID != "" {
			verifier[token] = userID
		}
	}
	return verifier
}
