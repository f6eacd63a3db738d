package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

// CookieService moves authentication material between execution contexts.
// Extraction merges the exact host with its registrable parent domain,
// because providers routinely split session cookies across both levels.
type CookieService struct {
	bridge ports.CookieBridge
	logger *slog.Logger
}

func NewCookieService(bridge ports.CookieBridge, logger *slog.Logger) *CookieService {
	if logger == nil {
		logger = slog.Default()
	}

	return &CookieService{bridge: bridge, logger: logger}
}

// ExtractForURL returns the cookies visible to the URL's host: exact-host
// cookies overlaid on registrable parent-domain cookies, the more specific
// value winning every name collision.
func (s *CookieService) ExtractForURL(ctx context.Context, rawURL string) (domain.CookieSet, error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return domain.CookieSet{}, err
	}

	hostSet, err := s.bridge.CookiesForDomain(ctx, host)
	if err != nil {
		return domain.CookieSet{}, fmt.Errorf("extract host cookies: %w", err)
	}

	parent := registrableParent(host)
	if parent == "" || parent == host {
		return hostSet, nil
	}

	parentSet, err := s.bridge.CookiesForDomain(ctx, parent)
	if err != nil {
		return domain.CookieSet{}, fmt.Errorf("extract parent-domain cookies: %w", err)
	}

	return hostSet.MergeUnder(parentSet), nil
}

// Inject writes a cookie set into the target context scoped to the given
// cookie domain. The bridge guarantees replaying the same set is a no-op.
func (s *CookieService) Inject(ctx context.Context, set domain.CookieSet, cookieDomain string) error {
	if strings.TrimSpace(cookieDomain) == "" {
		return errors.New("cookie domain is required")
	}
	if set.Empty() {
		return nil
	}

	if err := s.bridge.SetCookies(ctx, set, cookieDomain); err != nil {
		return fmt.Errorf("inject cookies into %q: %w", cookieDomain, err)
	}

	s.logger.Debug("cookies injected",
		"cookie_domain", cookieDomain,
		"count", len(set.Values))

	return nil
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	return strings.ToLower(host), nil
}

// registrableParent resolves the eTLD+1 for a host, or "" when the host
// has no meaningful parent (IP literals, single labels, bare eTLDs).
func registrableParent(host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}

	parent, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}

	return parent
}
