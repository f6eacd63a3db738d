package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

type loginFixture struct {
	svc       *LoginService
	authority *fakeAuthority
	state     *fakeState
	bridge    *fakeBridge
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()

	session := domain.NewCookieSet("app.pixverse.ai")
	session.Values["session"] = "exported"
	session.Values["csrf"] = "token"

	authority := &fakeAuthority{
		accounts: testAccounts(),
		session:  session,
	}
	state := newFakeState()
	bridge := newFakeBridge()
	clock := clockwork.NewFakeClock()
	logger := discardLogger()

	directory := NewDirectoryService(authority, state, clock, logger, time.Minute)
	health := NewSessionHealthService(authority, state, clock, logger, healthTTL)
	cookies := NewCookieService(bridge, logger)

	targets := func(provider domain.ProviderID) (domain.ProviderTarget, error) {
		if provider != "pixverse" {
			return domain.ProviderTarget{}, domain.ErrUnknownProvider
		}
		return domain.ProviderTarget{
			Provider:     "pixverse",
			CanonicalURL: "https://app.pixverse.ai/",
			CookieDomain: ".pixverse.ai",
		}, nil
	}

	return &loginFixture{
		svc:       NewLoginService(directory, health, cookies, authority, state, targets, logger),
		authority: authority,
		state:     state,
		bridge:    bridge,
	}
}

func TestLoginHandsOffSession(t *testing.T) {
	f := newLoginFixture(t)

	result, err := f.svc.Login(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, domain.AccountID("acc-1"), result.AccountID)
	assert.Equal(t, domain.ProviderID("pixverse"), result.Provider)
	assert.Equal(t, ".pixverse.ai", result.CookieDomain)
	assert.Equal(t, "https://app.pixverse.ai/", result.CanonicalURL)
	assert.Equal(t, 2, result.CookiesMoved)
	assert.True(t, result.Health.Healthy())

	assert.Equal(t, map[string]string{"session": "exported", "csrf": "token"}, f.bridge.jars[".pixverse.ai"])
	assert.Equal(t, domain.AccountID("acc-1"), f.state.sessions["pixverse"])
}

func TestLoginProceedsPastFailedHealthProbe(t *testing.T) {
	f := newLoginFixture(t)
	probeErr := errors.New("backend refused")
	f.authority.refreshErr = map[domain.AccountID]error{"acc-1": probeErr}

	result, err := f.svc.Login(context.Background(), "acc-1")
	require.NoError(t, err, "the probe is a precondition helper, not a gate")
	assert.ErrorIs(t, result.Health.Err, probeErr)
	assert.Equal(t, 2, result.CookiesMoved)
}

func TestLoginUnknownAccount(t *testing.T) {
	f := newLoginFixture(t)

	_, err := f.svc.Login(context.Background(), "acc-missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Zero(t, f.bridge.setCalls)
}

func TestLoginUnknownProviderTarget(t *testing.T) {
	f := newLoginFixture(t)

	// acc-3 belongs to a provider without a configured target.
	_, err := f.svc.Login(context.Background(), "acc-3")
	require.ErrorIs(t, err, domain.ErrUnknownProvider)
	assert.Zero(t, f.bridge.setCalls)
}

func TestLoginExportFailureAborts(t *testing.T) {
	f := newLoginFixture(t)
	f.authority.sessionErr = domain.ErrSessionExpired

	_, err := f.svc.Login(context.Background(), "acc-1")
	require.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Zero(t, f.bridge.setCalls)
	assert.Empty(t, f.state.sessions)
}

func TestLoginEmptySessionMaterialAborts(t *testing.T) {
	f := newLoginFixture(t)
	f.authority.session = domain.NewCookieSet("app.pixverse.ai")

	_, err := f.svc.Login(context.Background(), "acc-1")
	require.Error(t, err)
	assert.Zero(t, f.bridge.setCalls)
}
