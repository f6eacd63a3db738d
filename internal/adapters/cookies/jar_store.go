// Package cookies stores execution-context cookie jars on disk, one jar
// per cookie domain. Injection is idempotent: replaying a set that is
// already present leaves the jar byte-identical.
package cookies

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

const (
	jarDirMode  = 0o700
	jarFileMode = 0o600
)

type JarStore struct {
	root string
	mu   sync.RWMutex
}

var _ ports.CookieBridge = (*JarStore)(nil)

func NewJarStore(root string) *JarStore {
	return &JarStore{root: filepath.Clean(root)}
}

type jarSchema struct {
	Domain  string            `toml:"domain"`
	Cookies map[string]string `toml:"cookies"`
}

func (s *JarStore) CookiesForDomain(ctx context.Context, cookieDomain string) (domain.CookieSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.CookieSet{}, err
	}

	path, err := s.pathForDomain(cookieDomain)
	if err != nil {
		return domain.CookieSet{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewCookieSet(cookieDomain), nil
		}
		return domain.CookieSet{}, fmt.Errorf("read cookie jar %q: %w", cookieDomain, err)
	}

	var jar jarSchema
	if err := toml.Unmarshal(data, &jar); err != nil {
		return domain.CookieSet{}, fmt.Errorf("decode cookie jar %q: %w", cookieDomain, err)
	}

	set := domain.NewCookieSet(cookieDomain)
	for name, value := range jar.Cookies {
		set.Values[name] = value
	}

	return set, nil
}

func (s *JarStore) SetCookies(ctx context.Context, set domain.CookieSet, cookieDomain string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForDomain(cookieDomain)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := map[string]string{}
	if data, err := os.ReadFile(path); err == nil {
		var jar jarSchema
		if err := toml.Unmarshal(data, &jar); err != nil {
			return fmt.Errorf("decode cookie jar %q: %w", cookieDomain, err)
		}
		existing = jar.Cookies
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read cookie jar %q: %w", cookieDomain, err)
	}
	if existing == nil {
		existing = map[string]string{}
	}

	changed := false
	for name, value := range set.Values {
		if existing[name] != value {
			existing[name] = value
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return s.writeJar(path, jarSchema{Domain: cookieDomain, Cookies: existing})
}

func (s *JarStore) writeJar(path string, jar jarSchema) error {
	if err := os.MkdirAll(filepath.Dir(path), jarDirMode); err != nil {
		return fmt.Errorf("create cookie jar directory: %w", err)
	}

	data, err := toml.Marshal(jar)
	if err != nil {
		return fmt.Errorf("encode cookie jar: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), ".jar-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp cookie jar: %w", err)
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
		return fmt.Errorf("write temp cookie jar: %w", err)
	}
	if err := tempFile.Chmod(jarFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp cookie jar: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp cookie jar: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace cookie jar: %w", err)
	}
	cleanup = false

	return nil
}

func (s *JarStore) pathForDomain(cookieDomain string) (string, error) {
	trimmed := strings.TrimSpace(strings.ToLower(cookieDomain))
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return "", errors.New("cookie domain is empty")
	}
	if strings.ContainsAny(trimmed, "/\\") || strings.Contains(trimmed, "..") {
		return "", fmt.Errorf("invalid cookie domain %q", cookieDomain)
	}

	return filepath.Join(s.root, trimmed+".toml"), nil
}
