package driven

import "context"

// TokenProvider supplies the auth token sent to the search service.
// Implementations mint once and reuse the token until it expires.
type TokenProvider interface {
	// GetToken returns a valid token.
	GetToken(ctx context.Context) (string, error)

	// Actor returns the identity the token is bound to.
	Actor() string
}
