package identity

import "context"

// Claims is the verified subject information extracted from an identity token.
type Claims struct {
	UserID string
	Email  string
}

// Verifier validates inbound bearer identity tokens against the identity
// provider and extracts the caller's claims.
type Verifier interface {
	// Verify returns the claims of a valid token, or ErrInvalidToken when
	// the token is malformed, expired, or fails signature verification.
	Verify(ctx context.Context, idToken string) (*Claims, error)
}
