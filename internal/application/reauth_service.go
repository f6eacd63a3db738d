package application

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

// ReauthItem is one account's outcome inside a batch reauth.
type ReauthItem struct {
	AccountID domain.AccountID
	Success   bool
	Error     string
}

// ReauthReport aggregates a batch: Success is true iff every item
// succeeded, and Results always has one entry per requested account.
type ReauthReport struct {
	Success bool
	Results []ReauthItem
}

// ReauthService repairs broken sessions account by account. Attempts run
// sequentially with one call in flight, so failure attribution stays
// clean and one broken account can never abort the rest.
type ReauthService struct {
	authority ports.AuthorityClient
	health    *SessionHealthService
	notifier  ports.ChangeNotifier
	clock     clockwork.Clock
	logger    *slog.Logger
}

func NewReauthService(authority ports.AuthorityClient, health *SessionHealthService, notifier ports.ChangeNotifier, clock clockwork.Clock, logger *slog.Logger) *ReauthService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}

	return &ReauthService{
		authority: authority,
		health:    health,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

// Reauth attempts every account and reports per-item outcomes. There is no
// automatic retry: a failed account stays actionable via manual retry or
// its next natural use. A single accounts-changed notification is emitted
// only when the whole batch succeeded.
func (s *ReauthService) Reauth(ctx context.Context, ids []domain.AccountID) ReauthReport {
	report := ReauthReport{
		Success: true,
		Results: make([]ReauthItem, 0, len(ids)),
	}

	for _, id := range ids {
		item := ReauthItem{AccountID: id, Success: true}

		if err := s.authority.ReauthAccount(ctx, id); err != nil {
			item.Success = false
			item.Error = err.Error()
			report.Success = false

			s.logger.Warn("reauth attempt failed",
				"account_id", id,
				"error", err)
		} else {
			if s.health != nil {
				s.health.MarkHealthy(ctx, id)
			}
			s.logger.Info("reauth succeeded", "account_id", id)
		}

		report.Results = append(report.Results, item)
	}

	if report.Success && len(report.Results) > 0 {
		s.notifier.AccountsChanged("reauth")
	}

	return report
}
