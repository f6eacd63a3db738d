package ports

import (
	"context"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

// BatchSyncResult is the authority's answer to a batch credit refresh.
type BatchSyncResult struct {
	Synced int
	Failed int
	Total  int
}

// AuthorityClient is the remote authority's HTTP API, consumed as a
// black-box request/response interface. Auth-expired responses surface as
// domain.ErrSessionExpired; everything else non-2xx is transient.
type AuthorityClient interface {
	ListAccounts(ctx context.Context, provider domain.ProviderID) ([]domain.ProviderAccount, error)
	RefreshAllCredits(ctx context.Context) (BatchSyncResult, error)
	RefreshAccountCredits(ctx context.Context, id domain.AccountID) error
	ReauthAccount(ctx context.Context, id domain.AccountID) error
	ExportSession(ctx context.Context, id domain.AccountID) (domain.CookieSet, error)
}
