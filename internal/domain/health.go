package domain

import "time"

type HealthOutcome string

const (
	HealthHealthy HealthOutcome = "healthy"
	HealthUnknown HealthOutcome = "unknown"
)

// SessionHealthRecord is the result of the most recent per-account probe.
// Records are superseded whole on each probe, never merged.
type SessionHealthRecord struct {
	AccountID     AccountID
	LastCheckedAt time.Time
	Outcome       HealthOutcome
}

// JwtHealthReport is derived from a directory refresh and never stored.
// Missing and Expired are disjoint: an account without token material
// cannot also be expired.
type JwtHealthReport struct {
	Missing           []AccountID
	Expired           []AccountID
	AffectedProviders []ProviderID
}

func (r JwtHealthReport) Healthy() bool {
	return len(r.Missing) == 0 && len(r.Expired) == 0
}

func ComputeJwtHealth(accounts []ProviderAccount) JwtHealthReport {
	var report JwtHealthReport
	seen := make(map[ProviderID]struct{})

	for _, account := range accounts {
		switch {
		case !account.HasToken:
			report.Missing = append(report.Missing, account.ID)
		case account.TokenExpired:
			report.Expired = append(report.Expired, account.ID)
		default:
			continue
		}

		if _, ok := seen[account.Provider]; !ok {
			seen[account.Provider] = struct{}{}
			report.AffectedProviders = append(report.AffectedProviders, account.Provider)
		}
	}

	return report
}

// SessionBroken reports whether an account needs reauth before its
// credential material can be exported.
func SessionBroken(account ProviderAccount) bool {
	if !account.HasCookies && !account.HasToken {
		return true
	}
	return account.HasToken && account.TokenExpired
}
