package domain

import (
	"strings"
	"time"
)

type AccountID string
type ProviderID string

type AccountStatus string

const (
	StatusActive      AccountStatus = "active"
	StatusExhausted   AccountStatus = "exhausted"
	StatusError       AccountStatus = "error"
	StatusDisabled    AccountStatus = "disabled"
	StatusRateLimited AccountStatus = "rate_limited"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusExhausted, StatusError, StatusDisabled, StatusRateLimited:
		return true
	default:
		return false
	}
}

// ProviderAccount mirrors an account record owned by the remote authority.
// It is read-only on this side; refreshes replace the whole value.
type ProviderAccount struct {
	ID           AccountID
	Provider     ProviderID
	Email        string
	Nickname     string
	Status       AccountStatus
	Credits      map[string]float64
	HasCookies   bool
	HasToken     bool
	TokenExpired bool
	LastUsed     time.Time
}

func (a ProviderAccount) DisplayName() string {
	if name := strings.TrimSpace(a.Nickname); name != "" {
		return name
	}
	if email := strings.TrimSpace(a.Email); email != "" {
		return email
	}
	return string(a.ID)
}

func (a ProviderAccount) CreditTotal() float64 {
	var total float64
	for _, balance := range a.Credits {
		total += balance
	}
	return total
}

// DirectorySnapshot is a persisted account listing for one provider scope.
// Scope is a ProviderID, or ScopeAll for the unfiltered directory.
type DirectorySnapshot struct {
	Scope     string
	Accounts  []ProviderAccount
	WrittenAt time.Time
}

const ScopeAll = "all"

func ScopeFor(provider ProviderID) string {
	if provider == "" {
		return ScopeAll
	}
	return string(provider)
}
