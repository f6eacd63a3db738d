package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeAuthority is an in-memory ports.AuthorityClient with per-method
// error knobs and call accounting.
type fakeAuthority struct {
	mu sync.Mutex

	accounts  []domain.ProviderAccount
	listErr   error
	listCalls int

	batchResult ports.BatchSyncResult
	batchErr    error
	batchCalls  int
	// When non-nil, RefreshAllCredits blocks until the gate is closed.
	batchGate chan struct{}

	refreshErr   map[domain.AccountID]error
	refreshCalls map[domain.AccountID]int

	reauthErr   map[domain.AccountID]error
	reauthOrder []domain.AccountID

	session    domain.CookieSet
	sessionErr error
}

var _ ports.AuthorityClient = (*fakeAuthority)(nil)

func (f *fakeAuthority) ListAccounts(_ context.Context, provider domain.ProviderID) ([]domain.ProviderAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}

	if provider == "" {
		return append([]domain.ProviderAccount(nil), f.accounts...), nil
	}

	var scoped []domain.ProviderAccount
	for _, account := range f.accounts {
		if account.Provider == provider {
			scoped = append(scoped, account)
		}
	}
	return scoped, nil
}

func (f *fakeAuthority) RefreshAllCredits(_ context.Context) (ports.BatchSyncResult, error) {
	f.mu.Lock()
	f.batchCalls++
	gate := f.batchGate
	result, err := f.batchResult, f.batchErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return result, err
}

func (f *fakeAuthority) RefreshAccountCredits(_ context.Context, id domain.AccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refreshCalls == nil {
		f.refreshCalls = map[domain.AccountID]int{}
	}
	f.refreshCalls[id]++
	return f.refreshErr[id]
}

func (f *fakeAuthority) ReauthAccount(_ context.Context, id domain.AccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reauthOrder = append(f.reauthOrder, id)
	return f.reauthErr[id]
}

func (f *fakeAuthority) ExportSession(_ context.Context, _ domain.AccountID) (domain.CookieSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.session, f.sessionErr
}

func (f *fakeAuthority) calls() (list, batch int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.listCalls, f.batchCalls
}

// fakeState is an in-memory ports.StateRepository.
type fakeState struct {
	mu sync.Mutex

	lastSync  time.Time
	snapshots map[string]domain.DirectorySnapshot
	health    map[domain.AccountID]domain.SessionHealthRecord
	sessions  map[domain.ProviderID]domain.AccountID

	lastSyncErr     error
	setLastSyncErr  error
	saveSnapshotErr error
	saveHealthErr   error
}

var _ ports.StateRepository = (*fakeState)(nil)

func newFakeState() *fakeState {
	return &fakeState{
		snapshots: map[string]domain.DirectorySnapshot{},
		health:    map[domain.AccountID]domain.SessionHealthRecord{},
		sessions:  map[domain.ProviderID]domain.AccountID{},
	}
}

func (f *fakeState) LastSyncAt(context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastSync, f.lastSyncErr
}

func (f *fakeState) SetLastSyncAt(_ context.Context, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setLastSyncErr != nil {
		return f.setLastSyncErr
	}
	f.lastSync = at
	return nil
}

func (f *fakeState) DirectorySnapshot(_ context.Context, scope string) (domain.DirectorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot, ok := f.snapshots[scope]
	if !ok {
		return domain.DirectorySnapshot{}, domain.ErrSnapshotNotFound
	}
	return snapshot, nil
}

func (f *fakeState) SaveDirectorySnapshot(_ context.Context, snapshot domain.DirectorySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveSnapshotErr != nil {
		return f.saveSnapshotErr
	}
	f.snapshots[snapshot.Scope] = snapshot
	return nil
}

func (f *fakeState) HealthRecord(_ context.Context, id domain.AccountID) (domain.SessionHealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.health[id]
	if !ok {
		return domain.SessionHealthRecord{}, domain.ErrSnapshotNotFound
	}
	return record, nil
}

func (f *fakeState) SaveHealthRecord(_ context.Context, record domain.SessionHealthRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveHealthErr != nil {
		return f.saveHealthErr
	}
	f.health[record.AccountID] = record
	return nil
}

func (f *fakeState) CurrentSession(_ context.Context, provider domain.ProviderID) (domain.AccountID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.sessions[provider]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return id, nil
}

func (f *fakeState) SetCurrentSession(_ context.Context, provider domain.ProviderID, id domain.AccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sessions[provider] = id
	return nil
}

// fakeNotifier records every accounts-changed reason.
type fakeNotifier struct {
	mu      sync.Mutex
	reasons []string
}

var _ ports.ChangeNotifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) AccountsChanged(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reasons = append(f.reasons, reason)
}

func (f *fakeNotifier) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.reasons...)
}

// fakeBridge keeps cookies per exact domain, mirroring the bridge
// contract: no parent-domain inheritance, idempotent writes.
type fakeBridge struct {
	mu       sync.Mutex
	jars     map[string]map[string]string
	setCalls int
	setErr   error
	getErr   error
}

var _ ports.CookieBridge = (*fakeBridge)(nil)

func newFakeBridge() *fakeBridge {
	return &fakeBridge{jars: map[string]map[string]string{}}
}

func (f *fakeBridge) CookiesForDomain(_ context.Context, cookieDomain string) (domain.CookieSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return domain.CookieSet{}, f.getErr
	}

	set := domain.NewCookieSet(cookieDomain)
	for name, value := range f.jars[cookieDomain] {
		set.Values[name] = value
	}
	return set, nil
}

func (f *fakeBridge) SetCookies(_ context.Context, set domain.CookieSet, cookieDomain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}

	jar := f.jars[cookieDomain]
	if jar == nil {
		jar = map[string]string{}
		f.jars[cookieDomain] = jar
	}
	for name, value := range set.Values {
		jar[name] = value
	}
	return nil
}
