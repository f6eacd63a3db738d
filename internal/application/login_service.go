package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

// TargetResolver maps a provider to its static target configuration.
type TargetResolver func(domain.ProviderID) (domain.ProviderTarget, error)

// LoginResult describes a completed session handoff: which context now
// holds the session and where to point a browser at it.
type LoginResult struct {
	AccountID    domain.AccountID
	Provider     domain.ProviderID
	CookieDomain string
	CanonicalURL string
	Health       ProbeResult
	CookiesMoved int
}

// LoginService turns a validated backend-held credential into a live
// session in a new execution context: health check, session export,
// cookie injection, then the current-session mapping update.
type LoginService struct {
	directory *DirectoryService
	health    *SessionHealthService
	cookies   *CookieService
	authority ports.AuthorityClient
	state     ports.StateRepository
	targets   TargetResolver
	logger    *slog.Logger
}

func NewLoginService(
	directory *DirectoryService,
	health *SessionHealthService,
	cookies *CookieService,
	authority ports.AuthorityClient,
	state ports.StateRepository,
	targets TargetResolver,
	logger *slog.Logger,
) *LoginService {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoginService{
		directory: directory,
		health:    health,
		cookies:   cookies,
		authority: authority,
		state:     state,
		targets:   targets,
		logger:    logger,
	}
}

func (s *LoginService) Login(ctx context.Context, id domain.AccountID) (LoginResult, error) {
	account, err := s.directory.Account(ctx, id)
	if err != nil {
		return LoginResult{}, err
	}

	target, err := s.targets(account.Provider)
	if err != nil {
		return LoginResult{}, fmt.Errorf("resolve provider target: %w", err)
	}

	// Precondition helper, not the primary operation: a failed probe is
	// logged inside the health service and the login proceeds anyway.
	probe := s.health.EnsureHealthy(ctx, id, false)

	set, err := s.authority.ExportSession(ctx, id)
	if err != nil {
		return LoginResult{}, fmt.Errorf("export session for %q: %w", id, err)
	}
	if set.Empty() {
		return LoginResult{}, fmt.Errorf("account %q has no session material to transfer", id)
	}

	if err := s.cookies.Inject(ctx, set, target.CookieDomain); err != nil {
		return LoginResult{}, err
	}

	if err := s.state.SetCurrentSession(ctx, account.Provider, id); err != nil {
		s.logger.Warn("persist current session mapping failed",
			"provider", account.Provider,
			"account_id", id,
			"error", err)
	}

	s.logger.Info("session handed off",
		"account_id", id,
		"provider", account.Provider,
		"cookie_domain", target.CookieDomain,
		"cookies", len(set.Values))

	return LoginResult{
		AccountID:    id,
		Provider:     account.Provider,
		CookieDomain: target.CookieDomain,
		CanonicalURL: target.CanonicalURL,
		Health:       probe,
		CookiesMoved: len(set.Values),
	}, nil
}
