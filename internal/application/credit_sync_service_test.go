package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

const (
	testThrottle = 10 * time.Minute
	testWatchdog = 2 * time.Minute
)

type recordingInvalidator struct{ calls int }

func (r *recordingInvalidator) InvalidateStatuses() { r.calls++ }

func newSyncFixture(t *testing.T) (*CreditSyncService, *fakeAuthority, *fakeState, *fakeNotifier, *clockwork.FakeClock) {
	t.Helper()

	authority := &fakeAuthority{batchResult: ports.BatchSyncResult{Synced: 4, Failed: 1, Total: 5}}
	state := newFakeState()
	notifier := &fakeNotifier{}
	clock := clockwork.NewFakeClock()
	svc := NewCreditSyncService(authority, state, clock, discardLogger(), notifier, testThrottle, testWatchdog)
	return svc, authority, state, notifier, clock
}

func TestSyncAllPerformsAndPersists(t *testing.T) {
	svc, _, state, notifier, clock := newSyncFixture(t)

	report, err := svc.SyncAll(context.Background(), "startup", false)
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Performed: true, Synced: 4, Failed: 1, Total: 5}, report)
	assert.Equal(t, clock.Now(), state.lastSync)
	assert.Equal(t, []string{"credit_sync:startup"}, notifier.seen())
}

func TestSyncAllThrottlesRepeatCalls(t *testing.T) {
	svc, authority, _, notifier, clock := newSyncFixture(t)

	_, err := svc.SyncAll(context.Background(), "startup", false)
	require.NoError(t, err)

	clock.Advance(testThrottle - time.Second)

	report, err := svc.SyncAll(context.Background(), "tick", false)
	require.NoError(t, err)
	assert.False(t, report.Performed)

	_, batchCalls := authority.calls()
	assert.Equal(t, 1, batchCalls)
	assert.Len(t, notifier.seen(), 1, "a dropped call must not notify")

	clock.Advance(2 * time.Second)

	report, err = svc.SyncAll(context.Background(), "tick", false)
	require.NoError(t, err)
	assert.True(t, report.Performed, "the throttle window reopens after the interval")
}

func TestSyncAllForceBypassesThrottle(t *testing.T) {
	svc, authority, _, _, clock := newSyncFixture(t)

	_, err := svc.SyncAll(context.Background(), "startup", false)
	require.NoError(t, err)

	clock.Advance(time.Second)

	report, err := svc.SyncAll(context.Background(), "manual", true)
	require.NoError(t, err)
	assert.True(t, report.Performed)

	_, batchCalls := authority.calls()
	assert.Equal(t, 2, batchCalls)
}

func TestSyncAllLoadsPersistedTimestamp(t *testing.T) {
	svc, authority, state, _, clock := newSyncFixture(t)
	state.lastSync = clock.Now().Add(-time.Minute)

	report, err := svc.SyncAll(context.Background(), "startup", false)
	require.NoError(t, err)
	assert.False(t, report.Performed, "a recent persisted sync throttles across restarts")

	_, batchCalls := authority.calls()
	assert.Equal(t, 0, batchCalls)
}

func TestSyncAllDropsOverlappingCall(t *testing.T) {
	svc, authority, _, _, _ := newSyncFixture(t)

	gate := make(chan struct{})
	authority.batchGate = gate

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := svc.SyncAll(context.Background(), "slow", false)
		done <- err
	}()
	<-started
	waitForBatchCalls(t, authority, 1)

	report, err := svc.SyncAll(context.Background(), "overlap", true)
	require.NoError(t, err)
	assert.False(t, report.Performed, "a second call during an in-flight sync is dropped, not queued")

	close(gate)
	require.NoError(t, <-done)

	_, batchCalls := authority.calls()
	assert.Equal(t, 1, batchCalls)
}

func TestSyncAllWatchdogClearsStuckFlag(t *testing.T) {
	svc, authority, _, _, clock := newSyncFixture(t)

	gate := make(chan struct{})
	authority.batchGate = gate

	done := make(chan error, 1)
	go func() {
		_, err := svc.SyncAll(context.Background(), "stuck", false)
		done <- err
	}()
	waitForBatchCalls(t, authority, 1)

	// Past the watchdog timeout the in-progress flag no longer blocks.
	clock.Advance(testWatchdog + time.Second)
	authority.mu.Lock()
	authority.batchGate = nil
	authority.mu.Unlock()

	report, err := svc.SyncAll(context.Background(), "recovered", true)
	require.NoError(t, err)
	assert.True(t, report.Performed)

	close(gate)
	require.NoError(t, <-done)

	_, batchCalls := authority.calls()
	assert.Equal(t, 2, batchCalls)
}

func TestSyncAllFailureKeepsThrottleOpen(t *testing.T) {
	svc, authority, state, notifier, _ := newSyncFixture(t)
	authority.batchErr = errors.New("authority down")

	_, err := svc.SyncAll(context.Background(), "startup", false)
	require.Error(t, err)
	assert.True(t, state.lastSync.IsZero())
	assert.Empty(t, notifier.seen())

	authority.mu.Lock()
	authority.batchErr = nil
	authority.mu.Unlock()

	report, err := svc.SyncAll(context.Background(), "retry", false)
	require.NoError(t, err)
	assert.True(t, report.Performed, "a failed sync must not start a throttle window")
}

func TestSyncAllRunsInvalidatorsOnSuccessOnly(t *testing.T) {
	authority := &fakeAuthority{}
	invalidator := &recordingInvalidator{}
	svc := NewCreditSyncService(authority, newFakeState(), clockwork.NewFakeClock(), discardLogger(), nil, testThrottle, testWatchdog, invalidator)

	_, err := svc.SyncAll(context.Background(), "startup", false)
	require.NoError(t, err)
	assert.Equal(t, 1, invalidator.calls)

	authority.batchErr = errors.New("authority down")
	_, err = svc.SyncAll(context.Background(), "again", true)
	require.Error(t, err)
	assert.Equal(t, 1, invalidator.calls)
}

func waitForBatchCalls(t *testing.T, authority *fakeAuthority, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, batchCalls := authority.calls(); batchCalls >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d batch calls", want)
}
