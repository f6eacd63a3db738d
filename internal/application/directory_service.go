// Package application holds the orchestrator services that keep the local
// view of provider accounts consistent with the remote authority and with
// live session state.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Sakenfor/pixsim7-sub009/internal/cache"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

// AccountsResult is a directory read: the freshest list available without
// blocking, plus flags telling the caller whether a background refresh is
// warranted.
type AccountsResult struct {
	Accounts  []domain.ProviderAccount
	Stale     bool
	FromCache bool
	WrittenAt time.Time
}

type DirectoryService struct {
	authority ports.AuthorityClient
	state     ports.StateRepository
	clock     clockwork.Clock
	logger    *slog.Logger
	ttl       time.Duration
	scopes    *cache.Cache[string, []domain.ProviderAccount]

	mu         sync.RWMutex
	lastReport domain.JwtHealthReport
}

func NewDirectoryService(authority ports.AuthorityClient, state ports.StateRepository, clock clockwork.Clock, logger *slog.Logger, ttl time.Duration) *DirectoryService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DirectoryService{
		authority: authority,
		state:     state,
		clock:     clock,
		logger:    logger,
		ttl:       ttl,
		scopes:    cache.New[string, []domain.ProviderAccount](ttl, clock),
	}
}

// Accounts serves the directory cache-first: a hit is returned immediately
// even when stale, so callers can render and refresh in the background.
// Only a complete miss (no memory entry, no persisted snapshot) blocks on
// the authority.
func (s *DirectoryService) Accounts(ctx context.Context, provider domain.ProviderID) (AccountsResult, error) {
	scope := domain.ScopeFor(provider)

	if entry, stale, ok := s.scopes.Lookup(scope); ok {
		return AccountsResult{
			Accounts:  entry.Value,
			Stale:     stale,
			FromCache: true,
			WrittenAt: entry.WrittenAt,
		}, nil
	}

	snapshot, err := s.state.DirectorySnapshot(ctx, scope)
	if err == nil {
		s.scopes.Seed(scope, snapshot.Accounts, snapshot.WrittenAt)
		stale := s.ttl > 0 && s.clock.Now().Sub(snapshot.WrittenAt) > s.ttl
		return AccountsResult{
			Accounts:  snapshot.Accounts,
			Stale:     stale,
			FromCache: true,
			WrittenAt: snapshot.WrittenAt,
		}, nil
	}
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		return AccountsResult{}, fmt.Errorf("load directory snapshot: %w", err)
	}

	accounts, err := s.Refresh(ctx, provider)
	if err != nil {
		return AccountsResult{}, err
	}

	return AccountsResult{Accounts: accounts, WrittenAt: s.clock.Now()}, nil
}

// Refresh fetches the scope from the authority, replaces the cached entry
// and the persisted snapshot, and recomputes the token health report.
func (s *DirectoryService) Refresh(ctx context.Context, provider domain.ProviderID) ([]domain.ProviderAccount, error) {
	scope := domain.ScopeFor(provider)

	accounts, err := s.authority.ListAccounts(ctx, provider)
	if err != nil {
		// Leave the cached entry in place: stale-but-valid data stays
		// servable across transient authority failures.
		return nil, fmt.Errorf("refresh account directory: %w", err)
	}

	s.scopes.Set(scope, accounts)

	snapshot := domain.DirectorySnapshot{
		Scope:     scope,
		Accounts:  accounts,
		WrittenAt: s.clock.Now(),
	}
	if err := s.state.SaveDirectorySnapshot(ctx, snapshot); err != nil {
		s.logger.Warn("persist directory snapshot failed",
			"scope", scope,
			"error", err)
	}

	report := domain.ComputeJwtHealth(accounts)
	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	if !report.Healthy() {
		s.logger.Info("token health degraded",
			"scope", scope,
			"missing", len(report.Missing),
			"expired", len(report.Expired),
			"providers", len(report.AffectedProviders))
	}

	return accounts, nil
}

// Account resolves a single account through the directory, refreshing the
// unscoped view when the id is not cached.
func (s *DirectoryService) Account(ctx context.Context, id domain.AccountID) (domain.ProviderAccount, error) {
	result, err := s.Accounts(ctx, "")
	if err != nil {
		return domain.ProviderAccount{}, err
	}

	if account, ok := findAccount(result.Accounts, id); ok {
		return account, nil
	}

	if result.FromCache {
		accounts, err := s.Refresh(ctx, "")
		if err != nil {
			return domain.ProviderAccount{}, err
		}
		if account, ok := findAccount(accounts, id); ok {
			return account, nil
		}
	}

	return domain.ProviderAccount{}, fmt.Errorf("%w: %q", domain.ErrAccountNotFound, id)
}

// JwtHealth returns the report computed by the most recent refresh.
func (s *DirectoryService) JwtHealth() domain.JwtHealthReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastReport
}

// InvalidateStatuses drops every cached scope after an upstream change.
func (s *DirectoryService) InvalidateStatuses() {
	s.scopes.InvalidateAll()
}

func findAccount(accounts []domain.ProviderAccount, id domain.AccountID) (domain.ProviderAccount, bool) {
	for _, account := range accounts {
		if account.ID == id {
			return account, true
		}
	}
	return domain.ProviderAccount{}, false
}
