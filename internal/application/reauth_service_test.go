package application

import (
	"context"
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

func newReauthFixture(t *testing.T) (*ReauthService, *SessionHealthService, *fakeAuthority, *fakeNotifier) {
	t.Helper()

	authority := &fakeAuthority{}
	notifier := &fakeNotifier{}
	clock := clockwork.NewFakeClock()
	health := NewSessionHealthService(authority, newFakeState(), clock, discardLogger(), healthTTL)
	svc := NewReauthService(authority, health, notifier, clock, discardLogger())
	return svc, health, authority, notifier
}

func TestReauthAllSucceed(t *testing.T) {
	svc, health, authority, notifier := newReauthFixture(t)

	report := svc.Reauth(context.Background(), []domain.AccountID{"acc-1", "acc-2"})
	assert.True(t, report.Success)
	require.Len(t, report.Results, 2)
	for _, item := range report.Results {
		assert.True(t, item.Success)
		assert.Empty(t, item.Error)
	}

	assert.Equal(t, []string{"reauth"}, notifier.seen(), "exactly one notification for the whole batch")

	// A successful reauth marks the session healthy without a new probe.
	result := health.EnsureHealthy(context.Background(), "acc-1", false)
	assert.True(t, result.FromCache)
	assert.True(t, result.Healthy())
	assert.Equal(t, 0, authority.refreshCalls["acc-1"])
}

func TestReauthPartialFailure(t *testing.T) {
	svc, _, authority, notifier := newReauthFixture(t)
	authority.reauthErr = map[domain.AccountID]error{
		"acc-2": errors.New("provider rejected credentials"),
	}

	report := svc.Reauth(context.Background(), []domain.AccountID{"acc-1", "acc-2", "acc-3"})
	assert.False(t, report.Success, "one failure fails the batch")
	require.Len(t, report.Results, 3, "every requested account gets a result")

	assert.True(t, report.Results[0].Success)
	assert.False(t, report.Results[1].Success)
	assert.Equal(t, "provider rejected credentials", report.Results[1].Error)
	assert.True(t, report.Results[2].Success, "a failure must not abort the remaining accounts")

	assert.Empty(t, notifier.seen(), "a partial failure emits no notification")
}

func TestReauthRunsSequentially(t *testing.T) {
	svc, _, authority, _ := newReauthFixture(t)

	ids := []domain.AccountID{"acc-3", "acc-1", "acc-2"}
	svc.Reauth(context.Background(), ids)

	assert.Equal(t, ids, authority.reauthOrder, "attempts run in request order, one in flight")
}

func TestReauthEmptyBatch(t *testing.T) {
	svc, _, _, notifier := newReauthFixture(t)

	report := svc.Reauth(context.Background(), nil)
	assert.True(t, report.Success)
	assert.Empty(t, report.Results)
	assert.Empty(t, notifier.seen(), "an empty batch notifies nobody")
}
