package ports

import (
	"context"
	"time"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

// StateRepository is the durable key-value store behind the orchestrator:
// last sync timestamp, directory snapshots per scope, per-account health
// records, and the current provider→account session mapping.
type StateRepository interface {
	LastSyncAt(ctx context.Context) (time.Time, error)
	SetLastSyncAt(ctx context.Context, at time.Time) error

	DirectorySnapshot(ctx context.Context, scope string) (domain.DirectorySnapshot, error)
	SaveDirectorySnapshot(ctx context.Context, snapshot domain.DirectorySnapshot) error

	HealthRecord(ctx context.Context, id domain.AccountID) (domain.SessionHealthRecord, error)
	SaveHealthRecord(ctx context.Context, record domain.SessionHealthRecord) error

	CurrentSession(ctx context.Context, provider domain.ProviderID) (domain.AccountID, error)
	SetCurrentSession(ctx context.Context, provider domain.ProviderID, id domain.AccountID) error
}
