// Package dispatch routes typed requests to their handlers and fences
// list-query responses with per-stream sequence numbers, so a slow
// superseded refresh can never clobber state written by a newer one.
package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sakenfor/pixsim7-sub009/internal/application"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

// Action is the closed set of operations the dispatcher accepts. Anything
// outside this set is a programmer error, not a runtime condition.
type Action string

const (
	ActionGetAccounts        Action = "getAccounts"
	ActionSyncAllCredits     Action = "syncAllCredits"
	ActionSyncAccountCredits Action = "syncAccountCredits"
	ActionReauthAccounts     Action = "reauthAccounts"
	ActionLoginWithAccount   Action = "loginWithAccount"
	ActionExtractCookies     Action = "extractCookiesForUrl"
	ActionInjectCookies      Action = "injectCookies"
)

var ErrUnknownAction = errors.New("unknown action")

// Payload carries the union of handler inputs; each action reads only the
// fields its row in the protocol table names.
type Payload struct {
	Provider     domain.ProviderID
	AccountID    domain.AccountID
	AccountIDs   []domain.AccountID
	Force        bool
	URL          string
	Cookies      domain.CookieSet
	CookieDomain string
}

// Request is one message into the dispatcher. ID is a correlation id; a
// fresh one is assigned when the caller leaves it empty.
type Request struct {
	ID      string
	Action  Action
	Payload Payload
}

// Response is the renderable outcome of a request. Component failures
// arrive as data inside the relevant field; only malformed input and
// hard operation failures surface through Dispatch's error return.
type Response struct {
	RequestID string
	Action    Action
	Success   bool

	Accounts  []domain.ProviderAccount
	Stale     bool
	WrittenAt time.Time

	Sync    application.SyncReport
	Probe   application.ProbeResult
	Reauth  application.ReauthReport
	Login   application.LoginResult
	Cookies domain.CookieSet
}

func (p Payload) requireAccountID() error {
	if p.AccountID == "" {
		return errors.New("account id is required")
	}
	return nil
}

func (p Payload) requireAccountIDs() error {
	if len(p.AccountIDs) == 0 {
		return errors.New("at least one account id is required")
	}
	for _, id := range p.AccountIDs {
		if id == "" {
			return fmt.Errorf("empty account id in batch of %d", len(p.AccountIDs))
		}
	}
	return nil
}
