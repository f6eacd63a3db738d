package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Sakenfor/pixsim7-sub009/internal/application"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

type handler func(ctx context.Context, req Request) (Response, error)

// Dispatcher is the single entry point for UI intents. Handlers are
// registered per action at construction; getAccounts responses are
// committed to the accounts view through per-scope sequence fencing.
type Dispatcher struct {
	directory *application.DirectoryService
	sync      *application.CreditSyncService
	health    *application.SessionHealthService
	cookies   *application.CookieService
	reauth    *application.ReauthService
	login     *application.LoginService
	logger    *slog.Logger

	handlers map[Action]handler

	mu   sync.Mutex
	seqs map[string]uint64
	view map[string][]domain.ProviderAccount

	refreshes sync.WaitGroup
}

func New(
	directory *application.DirectoryService,
	creditSync *application.CreditSyncService,
	health *application.SessionHealthService,
	cookies *application.CookieService,
	reauth *application.ReauthService,
	login *application.LoginService,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		directory: directory,
		sync:      creditSync,
		health:    health,
		cookies:   cookies,
		reauth:    reauth,
		login:     login,
		logger:    logger,
		seqs:      map[string]uint64{},
		view:      map[string][]domain.ProviderAccount{},
	}

	d.handlers = map[Action]handler{
		ActionGetAccounts:        d.handleGetAccounts,
		ActionSyncAllCredits:     d.handleSyncAllCredits,
		ActionSyncAccountCredits: d.handleSyncAccountCredits,
		ActionReauthAccounts:     d.handleReauthAccounts,
		ActionLoginWithAccount:   d.handleLoginWithAccount,
		ActionExtractCookies:     d.handleExtractCookies,
		ActionInjectCookies:      d.handleInjectCookies,
	}

	return d
}

// Dispatch routes one request to its handler. Unknown actions and missing
// required identifiers are rejected immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	h, ok := d.handlers[req.Action]
	if !ok {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	resp, err := h(ctx, req)
	resp.RequestID = req.ID
	resp.Action = req.Action
	return resp, err
}

// AccountsView returns the fenced UI-facing account list for a scope.
func (d *Dispatcher) AccountsView(provider domain.ProviderID) []domain.ProviderAccount {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]domain.ProviderAccount(nil), d.view[domain.ScopeFor(provider)]...)
}

// Wait blocks until all in-flight background refreshes have resolved.
func (d *Dispatcher) Wait() {
	d.refreshes.Wait()
}

// handleGetAccounts serves the directory cache-first and refreshes stale
// scopes in the background. The sequence is captured before the refresh
// starts; a resolution that finds itself superseded is silently dropped.
func (d *Dispatcher) handleGetAccounts(ctx context.Context, req Request) (Response, error) {
	provider := req.Payload.Provider
	scope := domain.ScopeFor(provider)

	result, err := d.directory.Accounts(ctx, provider)
	if err != nil {
		return Response{}, err
	}

	seq := d.bumpSeq(scope)
	d.commit(scope, seq, result.Accounts)

	if result.Stale {
		refreshSeq := d.bumpSeq(scope)
		refreshCtx := context.WithoutCancel(ctx)

		d.refreshes.Add(1)
		go func() {
			defer d.refreshes.Done()

			accounts, err := d.directory.Refresh(refreshCtx, provider)
			if err != nil {
				d.logger.Warn("background directory refresh failed",
					"scope", scope,
					"error", err)
				return
			}
			if !d.commit(scope, refreshSeq, accounts) {
				d.logger.Debug("discarded superseded directory refresh",
					"scope", scope,
					"seq", refreshSeq)
			}
		}()
	}

	return Response{
		Success:   true,
		Accounts:  result.Accounts,
		Stale:     result.Stale,
		WrittenAt: result.WrittenAt,
	}, nil
}

func (d *Dispatcher) handleSyncAllCredits(ctx context.Context, req Request) (Response, error) {
	// The batch refresh is global; a provider in the payload only narrows
	// the recorded reason, never the authority call.
	reason := "dispatch"
	if req.Payload.Provider != "" {
		reason = "dispatch:" + string(req.Payload.Provider)
	}

	report, err := d.sync.SyncAll(ctx, reason, req.Payload.Force)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, Sync: report}, nil
}

func (d *Dispatcher) handleSyncAccountCredits(ctx context.Context, req Request) (Response, error) {
	if err := req.Payload.requireAccountID(); err != nil {
		return Response{}, err
	}

	probe := d.health.EnsureHealthy(ctx, req.Payload.AccountID, req.Payload.Force)
	return Response{Success: probe.Healthy(), Probe: probe}, nil
}

func (d *Dispatcher) handleReauthAccounts(ctx context.Context, req Request) (Response, error) {
	if err := req.Payload.requireAccountIDs(); err != nil {
		return Response{}, err
	}

	report := d.reauth.Reauth(ctx, req.Payload.AccountIDs)
	return Response{Success: report.Success, Reauth: report}, nil
}

func (d *Dispatcher) handleLoginWithAccount(ctx context.Context, req Request) (Response, error) {
	if err := req.Payload.requireAccountID(); err != nil {
		return Response{}, err
	}

	result, err := d.login.Login(ctx, req.Payload.AccountID)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, Login: result}, nil
}

func (d *Dispatcher) handleExtractCookies(ctx context.Context, req Request) (Response, error) {
	if req.Payload.URL == "" {
		return Response{}, errors.New("url is required")
	}

	set, err := d.cookies.ExtractForURL(ctx, req.Payload.URL)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, Cookies: set}, nil
}

func (d *Dispatcher) handleInjectCookies(ctx context.Context, req Request) (Response, error) {
	if err := d.cookies.Inject(ctx, req.Payload.Cookies, req.Payload.CookieDomain); err != nil {
		return Response{}, err
	}
	return Response{Success: true}, nil
}

// bumpSeq advances the scope's stream and returns the new current
// sequence. A response may be committed only while its captured sequence
// is still the current one.
func (d *Dispatcher) bumpSeq(scope string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seqs[scope]++
	return d.seqs[scope]
}

func (d *Dispatcher) commit(scope string, seq uint64, accounts []domain.ProviderAccount) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seqs[scope] != seq {
		return false
	}
	d.view[scope] = accounts
	return true
}
