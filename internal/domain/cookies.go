package domain

import (
	"fmt"
	"strings"
)

// CookieSet is an opaque name→value mapping tagged with the domain it was
// captured from. It lives only for the duration of a single transfer.
type CookieSet struct {
	Domain string
	Values map[string]string
}

func NewCookieSet(domain string) CookieSet {
	return CookieSet{Domain: domain, Values: map[string]string{}}
}

func (c CookieSet) Empty() bool {
	return len(c.Values) == 0
}

// MergeUnder overlays c on top of parent: parent-domain cookies fill gaps,
// the more specific child-domain value wins every name collision.
func (c CookieSet) MergeUnder(parent CookieSet) CookieSet {
	merged := NewCookieSet(c.Domain)
	for name, value := range parent.Values {
		merged.Values[name] = value
	}
	for name, value := range c.Values {
		merged.Values[name] = value
	}
	return merged
}

// ProviderTarget is static per-provider configuration.
type ProviderTarget struct {
	Provider     ProviderID
	CanonicalURL string
	CookieDomain string
}

func (t ProviderTarget) Validate() error {
	if strings.TrimSpace(string(t.Provider)) == "" {
		return fmt.Errorf("provider id is required")
	}
	if strings.TrimSpace(t.CanonicalURL) == "" {
		return fmt.Errorf("canonical url is required for provider %q", t.Provider)
	}
	if strings.TrimSpace(t.CookieDomain) == "" {
		return fmt.Errorf("cookie domain is required for provider %q", t.Provider)
	}
	return nil
}
