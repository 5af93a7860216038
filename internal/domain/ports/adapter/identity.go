package adapter

import "context"

// Identity is a verified external identity. The core trusts this as the
// authenticated caller without re-verifying.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
}

// IdentityVerifier validates a bearer credential with the external identity
// provider. Fails with domain.ErrInvalidCredential on any verification
// failure.
type IdentityVerifier interface {
	Verify(ctx context.Context, bearerToken string) (Identity, error)
}
