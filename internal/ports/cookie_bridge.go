package ports

import (
	"context"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

// CookieBridge reads and writes cookie material in an execution context.
// DOM-level capture stays outside this core; the bridge only moves opaque
// name→value pairs scoped by domain.
type CookieBridge interface {
	// CookiesForDomain returns the cookies visible on exactly the given
	// domain, without parent-domain inheritance.
	CookiesForDomain(ctx context.Context, cookieDomain string) (domain.CookieSet, error)

	// SetCookies writes a cookie set into the target context scoped to
	// cookieDomain. Replaying the same set is a no-op in effect.
	SetCookies(ctx context.Context, set domain.CookieSet, cookieDomain string) error
}
