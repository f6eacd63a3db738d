package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Sakenfor/pixsim7-sub009/internal/cache"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

// ProbeResult makes the fail-soft contract of the health monitor explicit:
// the probe error rides along as data and the caller's primary action
// proceeds either way.
type ProbeResult struct {
	AccountID domain.AccountID
	Outcome   domain.HealthOutcome
	CheckedAt time.Time
	FromCache bool
	Err       error
}

func (r ProbeResult) Healthy() bool {
	return r.Outcome == domain.HealthHealthy
}

// SessionHealthService gates per-account probes behind an account-level
// TTL, deliberately independent of the global credit sync throttle: one
// account's repair never waits on, or triggers, a batch sync.
type SessionHealthService struct {
	authority ports.AuthorityClient
	state     ports.StateRepository
	clock     clockwork.Clock
	logger    *slog.Logger
	ttl       time.Duration
	records   *cache.Cache[domain.AccountID, domain.SessionHealthRecord]

	mu            sync.Mutex
	invalidatedAt time.Time
}

func NewSessionHealthService(authority ports.AuthorityClient, state ports.StateRepository, clock clockwork.Clock, logger *slog.Logger, ttl time.Duration) *SessionHealthService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionHealthService{
		authority: authority,
		state:     state,
		clock:     clock,
		logger:    logger,
		ttl:       ttl,
		records:   cache.New[domain.AccountID, domain.SessionHealthRecord](ttl, clock),
	}
}

// EnsureHealthy returns the cached record when it is fresh and the call is
// not forced; otherwise it issues one best-effort probe. The attempt
// timestamp is recorded on failure too, so a known-broken account is not
// hammered on every call.
func (s *SessionHealthService) EnsureHealthy(ctx context.Context, id domain.AccountID, force bool) ProbeResult {
	if !force {
		if entry, stale, ok := s.records.Lookup(id); ok && !stale {
			return ProbeResult{
				AccountID: id,
				Outcome:   entry.Value.Outcome,
				CheckedAt: entry.Value.LastCheckedAt,
				FromCache: true,
			}
		}

		if record, err := s.state.HealthRecord(ctx, id); err == nil {
			fresh := s.ttl <= 0 || s.clock.Now().Sub(record.LastCheckedAt) <= s.ttl
			if fresh && !s.invalidatedSince(record.LastCheckedAt) {
				s.records.Seed(id, record, record.LastCheckedAt)
				return ProbeResult{
					AccountID: id,
					Outcome:   record.Outcome,
					CheckedAt: record.LastCheckedAt,
					FromCache: true,
				}
			}
		} else if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.Warn("load health record failed",
				"account_id", id,
				"error", err)
		}
	}

	probeErr := s.authority.RefreshAccountCredits(ctx, id)

	now := s.clock.Now()
	record := domain.SessionHealthRecord{
		AccountID:     id,
		LastCheckedAt: now,
		Outcome:       domain.HealthHealthy,
	}
	if probeErr != nil {
		record.Outcome = domain.HealthUnknown
		s.logger.Warn("session health probe failed",
			"account_id", id,
			"error", probeErr)
	}

	s.store(ctx, record)

	return ProbeResult{
		AccountID: id,
		Outcome:   record.Outcome,
		CheckedAt: now,
		Err:       probeErr,
	}
}

// MarkHealthy records a successful backend-side repair, superseding any
// previous record for the account.
func (s *SessionHealthService) MarkHealthy(ctx context.Context, id domain.AccountID) {
	s.store(ctx, domain.SessionHealthRecord{
		AccountID:     id,
		LastCheckedAt: s.clock.Now(),
		Outcome:       domain.HealthHealthy,
	})
}

// InvalidateStatuses drops all cached records after a batch refresh.
// Persisted records written before this point are disregarded too, so the
// next read of any account issues a fresh probe.
func (s *SessionHealthService) InvalidateStatuses() {
	s.records.InvalidateAll()

	s.mu.Lock()
	s.invalidatedAt = s.clock.Now()
	s.mu.Unlock()
}

func (s *SessionHealthService) invalidatedSince(checkedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.invalidatedAt.IsZero() && !checkedAt.After(s.invalidatedAt)
}

func (s *SessionHealthService) store(ctx context.Context, record domain.SessionHealthRecord) {
	s.records.Set(record.AccountID, record)

	if err := s.state.SaveHealthRecord(ctx, record); err != nil {
		s.logger.Warn("persist health record failed",
			"account_id", record.AccountID,
			"error", err)
	}
}
