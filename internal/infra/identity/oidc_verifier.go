package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"saas-subscription-backend/internal/config"
	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/ports/adapter"
)

var _ adapter.IdentityVerifier = (*OIDCVerifier)(nil)

// OIDCVerifier validates bearer tokens against an OIDC issuer's published
// keys. Discovery happens once at construction.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, cfg *config.IdentityConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", cfg.Issuer, err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.Audience}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (adapter.Identity, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return adapter.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := token.Claims(&claims); err != nil {
		return adapter.Identity{}, fmt.Errorf("%w: claims: %v", domain.ErrInvalidCredential, err)
	}
	if claims.Email == "" {
		return adapter.Identity{}, fmt.Errorf("%w: token carries no email claim", domain.ErrInvalidCredential)
	}
	return adapter.Identity{
		SubjectID: token.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
	}, nil
}
