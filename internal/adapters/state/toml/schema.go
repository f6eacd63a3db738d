package toml

import (
	"fmt"
	"time"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version    int              `toml:"version"`
	LastSyncAt string           `toml:"last_sync_at,omitempty"`
	Snapshots  []snapshotSchema `toml:"snapshots,omitempty"`
	Health     []healthSchema   `toml:"health,omitempty"`
	Sessions   map[string]string `toml:"sessions,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Sessions == nil {
		s.Sessions = map[string]string{}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type snapshotSchema struct {
	Scope     string          `toml:"scope"`
	WrittenAt string          `toml:"written_at"`
	Accounts  []accountSchema `toml:"accounts"`
}

type accountSchema struct {
	ID           string             `toml:"id"`
	Provider     string             `toml:"provider"`
	Email        string             `toml:"email,omitempty"`
	Nickname     string             `toml:"nickname,omitempty"`
	Status       string             `toml:"status"`
	Credits      map[string]float64 `toml:"credits,omitempty"`
	HasCookies   bool               `toml:"has_cookies"`
	HasToken     bool               `toml:"has_token"`
	TokenExpired bool               `toml:"token_expired"`
	LastUsed     string             `toml:"last_used,omitempty"`
}

type healthSchema struct {
	AccountID     string `toml:"account_id"`
	LastCheckedAt string `toml:"last_checked_at"`
	Outcome       string `toml:"outcome"`
}

func toSnapshotSchema(snapshot domain.DirectorySnapshot) snapshotSchema {
	accounts := make([]accountSchema, 0, len(snapshot.Accounts))
	for _, account := range snapshot.Accounts {
		accounts = append(accounts, accountSchema{
			ID:           string(account.ID),
			Provider:     string(account.Provider),
			Email:        account.Email,
			Nickname:     account.Nickname,
			Status:       string(account.Status),
			Credits:      account.Credits,
			HasCookies:   account.HasCookies,
			HasToken:     account.HasToken,
			TokenExpired: account.TokenExpired,
			LastUsed:     encodeTime(account.LastUsed),
		})
	}

	return snapshotSchema{
		Scope:     snapshot.Scope,
		WrittenAt: encodeTime(snapshot.WrittenAt),
		Accounts:  accounts,
	}
}

func fromSnapshotSchema(entry snapshotSchema) domain.DirectorySnapshot {
	accounts := make([]domain.ProviderAccount, 0, len(entry.Accounts))
	for _, account := range entry.Accounts {
		accounts = append(accounts, domain.ProviderAccount{
			ID:           domain.AccountID(account.ID),
			Provider:     domain.ProviderID(account.Provider),
			Email:        account.Email,
			Nickname:     account.Nickname,
			Status:       domain.AccountStatus(account.Status),
			Credits:      account.Credits,
			HasCookies:   account.HasCookies,
			HasToken:     account.HasToken,
			TokenExpired: account.TokenExpired,
			LastUsed:     decodeTime(account.LastUsed),
		})
	}

	return domain.DirectorySnapshot{
		Scope:     entry.Scope,
		Accounts:  accounts,
		WrittenAt: decodeTime(entry.WrittenAt),
	}
}

func toHealthSchema(record domain.SessionHealthRecord) healthSchema {
	return healthSchema{
		AccountID:     string(record.AccountID),
		LastCheckedAt: encodeTime(record.LastCheckedAt),
		Outcome:       string(record.Outcome),
	}
}

func fromHealthSchema(entry healthSchema) domain.SessionHealthRecord {
	return domain.SessionHealthRecord{
		AccountID:     domain.AccountID(entry.AccountID),
		LastCheckedAt: decodeTime(entry.LastCheckedAt),
		Outcome:       domain.HealthOutcome(entry.Outcome),
	}
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
