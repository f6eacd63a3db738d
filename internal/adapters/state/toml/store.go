// Package toml persists orchestrator state in a single TOML file with
// atomic replace semantics, so readers never observe a partially written
// snapshot.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

const (
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	tempFilePattern = ".state-*.toml.tmp"
)

type Store struct {
	statePath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.StateRepository = (*Store)(nil)

func NewStore(statePath string) (*Store, error) {
	absPath, err := filepath.Abs(statePath)
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &Store{statePath: absPath, mu: lockForPath(absPath)}, nil
}

func (s *Store) LastSyncAt(ctx context.Context) (time.Time, error) {
	file, err := s.read(ctx)
	if err != nil {
		return time.Time{}, err
	}

	return decodeTime(file.LastSyncAt), nil
}

func (s *Store) SetLastSyncAt(ctx context.Context, at time.Time) error {
	return s.update(ctx, func(file *fileSchema) {
		file.LastSyncAt = encodeTime(at)
	})
}

func (s *Store) DirectorySnapshot(ctx context.Context, scope string) (domain.DirectorySnapshot, error) {
	file, err := s.read(ctx)
	if err != nil {
		return domain.DirectorySnapshot{}, err
	}

	for _, entry := range file.Snapshots {
		if entry.Scope == scope {
			return fromSnapshotSchema(entry), nil
		}
	}

	return domain.DirectorySnapshot{}, domain.ErrSnapshotNotFound
}

func (s *Store) SaveDirectorySnapshot(ctx context.Context, snapshot domain.DirectorySnapshot) error {
	encoded := toSnapshotSchema(snapshot)

	return s.update(ctx, func(file *fileSchema) {
		for i := range file.Snapshots {
			if file.Snapshots[i].Scope == encoded.Scope {
				file.Snapshots[i] = encoded
				return
			}
		}
		file.Snapshots = append(file.Snapshots, encoded)
	})
}

func (s *Store) HealthRecord(ctx context.Context, id domain.AccountID) (domain.SessionHealthRecord, error) {
	file, err := s.read(ctx)
	if err != nil {
		return domain.SessionHealthRecord{}, err
	}

	for _, entry := range file.Health {
		if entry.AccountID == string(id) {
			return fromHealthSchema(entry), nil
		}
	}

	return domain.SessionHealthRecord{}, domain.ErrSnapshotNotFound
}

func (s *Store) SaveHealthRecord(ctx context.Context, record domain.SessionHealthRecord) error {
	encoded := toHealthSchema(record)

	return s.update(ctx, func(file *fileSchema) {
		for i := range file.Health {
			if file.Health[i].AccountID == encoded.AccountID {
				file.Health[i] = encoded
				return
			}
		}
		file.Health = append(file.Health, encoded)
	})
}

func (s *Store) CurrentSession(ctx context.Context, provider domain.ProviderID) (domain.AccountID, error) {
	file, err := s.read(ctx)
	if err != nil {
		return "", err
	}

	id, ok := file.Sessions[string(provider)]
	if !ok || id == "" {
		return "", domain.ErrSessionNotFound
	}

	return domain.AccountID(id), nil
}

func (s *Store) SetCurrentSession(ctx context.Context, provider domain.ProviderID, id domain.AccountID) error {
	return s.update(ctx, func(file *fileSchema) {
		file.Sessions[string(provider)] = string(id)
	})
}

func (s *Store) read(ctx context.Context) (fileSchema, error) {
	if err := ctx.Err(); err != nil {
		return fileSchema{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readSchema()
}

func (s *Store) update(ctx context.Context, mutate func(*fileSchema)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	mutate(&file)

	return s.writeSchema(file)
}

func (s *Store) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read state file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode state file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.statePath), stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.statePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tempName, s.statePath); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	cleanup = false

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
