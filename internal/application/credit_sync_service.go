package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

// StatusInvalidator drops derived per-account caches that a batch credit
// refresh has made stale.
type StatusInvalidator interface {
	InvalidateStatuses()
}

// SyncReport is the outcome of one SyncAll call. Performed is false when
// the call was dropped by the throttle or by an in-flight sync; a dropped
// call is not queued.
type SyncReport struct {
	Performed bool
	Synced    int
	Failed    int
	Total     int
}

// CreditSyncService serializes the global batch credit refresh behind an
// in-progress flag with a watchdog, so a lost completion can never wedge
// future syncs.
type CreditSyncService struct {
	authority    ports.AuthorityClient
	state        ports.StateRepository
	clock        clockwork.Clock
	logger       *slog.Logger
	notifier     ports.ChangeNotifier
	invalidators []StatusInvalidator
	throttle     time.Duration
	watchdog     time.Duration

	mu            sync.Mutex
	inProgress    bool
	startedAt     time.Time
	lastSuccessAt time.Time
	loaded        bool
}

func NewCreditSyncService(
	authority ports.AuthorityClient,
	state ports.StateRepository,
	clock clockwork.Clock,
	logger *slog.Logger,
	notifier ports.ChangeNotifier,
	throttle, watchdog time.Duration,
	invalidators ...StatusInvalidator,
) *CreditSyncService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}

	return &CreditSyncService{
		authority:    authority,
		state:        state,
		clock:        clock,
		logger:       logger,
		notifier:     notifier,
		invalidators: invalidators,
		throttle:     throttle,
		watchdog:     watchdog,
	}
}

// SyncAll runs one batch credit refresh for every account. Overlapping
// calls are dropped, not queued; non-forced calls inside the throttle
// window are no-ops; a sync stuck past the watchdog timeout is declared
// abandoned and the flag is force-cleared before proceeding.
func (s *CreditSyncService) SyncAll(ctx context.Context, reason string, force bool) (SyncReport, error) {
	now := s.clock.Now()

	s.mu.Lock()
	if s.inProgress {
		elapsed := now.Sub(s.startedAt)
		if elapsed <= s.watchdog {
			s.mu.Unlock()
			s.logger.Debug("credit sync already in progress, dropping call",
				"reason", reason,
				"elapsed", elapsed)
			return SyncReport{}, nil
		}

		s.logger.Warn("credit sync watchdog expired, force-clearing stuck flag",
			"reason", reason,
			"stuck_for", elapsed)
		s.inProgress = false
	}

	if !s.loaded {
		s.loadLastSuccessLocked(ctx)
	}

	if !force && !s.lastSuccessAt.IsZero() && now.Sub(s.lastSuccessAt) < s.throttle {
		s.mu.Unlock()
		s.logger.Debug("credit sync throttled",
			"reason", reason,
			"since_last", now.Sub(s.lastSuccessAt))
		return SyncReport{}, nil
	}

	s.inProgress = true
	s.startedAt = now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inProgress = false
		s.mu.Unlock()
	}()

	result, err := s.authority.RefreshAllCredits(ctx)
	if err != nil {
		// lastSuccessAt stays untouched so the next non-forced call
		// retries after the throttle window instead of immediately.
		s.logger.Warn("batch credit refresh failed",
			"reason", reason,
			"error", err)
		return SyncReport{}, fmt.Errorf("sync all credits: %w", err)
	}

	completedAt := s.clock.Now()
	s.mu.Lock()
	s.lastSuccessAt = completedAt
	s.mu.Unlock()

	if err := s.state.SetLastSyncAt(ctx, completedAt); err != nil {
		s.logger.Warn("persist last sync timestamp failed", "error", err)
	}

	for _, invalidator := range s.invalidators {
		invalidator.InvalidateStatuses()
	}

	s.notifier.AccountsChanged("credit_sync:" + reason)

	s.logger.Info("credit sync completed",
		"reason", reason,
		"synced", result.Synced,
		"failed", result.Failed,
		"total", result.Total)

	return SyncReport{
		Performed: true,
		Synced:    result.Synced,
		Failed:    result.Failed,
		Total:     result.Total,
	}, nil
}

func (s *CreditSyncService) loadLastSuccessLocked(ctx context.Context) {
	s.loaded = true

	at, err := s.state.LastSyncAt(ctx)
	if err != nil {
		s.logger.Warn("load last sync timestamp failed", "error", err)
		return
	}
	s.lastSuccessAt = at
}
