// Package identity resolves the principal behind a call. A
// principal is an opaque caller identifier that the favorites
// store uses only as a key.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoPrincipal indicates that no caller identity could be resolved
	ErrNoPrincipal = errors.New("no caller identity")
)

// Principal identifies a caller
type Principal string

// Key returns the storage key for this principal
func (principal Principal) Key() []byte {
	return []byte(principal)
}

// Valid returns true if the principal is non-empty
func (principal Principal) Valid() bool {
	return strings.TrimSpace(string(principal)) != ""
}

type key int

const principalKey key = iota

// WithPrincipal attaches the caller's principal to the context
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// FromContext returns the principal attached to the context.
// It returns ErrNoPrincipal if there is none.
func FromContext(ctx context.Context) (Principal, error) {
	principal, ok := ctx.Value(principalKey).(Principal)

	if !ok || !principal.Valid() {
		return "", ErrNoPrincipal
	}

	return principal, nil
}

// BearerToken extracts the token from an Authorization
// header value of the form "Bearer <token>"
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)

	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
