package cookies

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

func TestCookiesForDomainMissingJarIsEmpty(t *testing.T) {
	store := NewJarStore(t.TempDir())

	set, err := store.CookiesForDomain(context.Background(), "pix.example")
	require.NoError(t, err)
	assert.Equal(t, "pix.example", set.Domain)
	assert.True(t, set.Empty())
}

func TestSetCookiesRoundTrip(t *testing.T) {
	store := NewJarStore(t.TempDir())
	ctx := context.Background()

	set := domain.CookieSet{Domain: "pix.example", Values: map[string]string{
		"session": "s-1",
		"csrf":    "c-1",
	}}
	require.NoError(t, store.SetCookies(ctx, set, "pix.example"))

	got, err := store.CookiesForDomain(ctx, "pix.example")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.Values["session"])
	assert.Equal(t, "c-1", got.Values["csrf"])
}

func TestSetCookiesIdempotentReplay(t *testing.T) {
	dir := t.TempDir()
	store := NewJarStore(dir)
	ctx := context.Background()

	set := domain.CookieSet{Domain: "pix.example", Values: map[string]string{"session": "s-1"}}
	require.NoError(t, store.SetCookies(ctx, set, "pix.example"))

	path := filepath.Join(dir, "pix.example.toml")
	before, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, store.SetCookies(ctx, set, "pix.example"))

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "replaying the same set must not rewrite the jar")

	got, err := store.CookiesForDomain(ctx, "pix.example")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"session": "s-1"}, got.Values)
}

func TestSetCookiesMergesIntoExistingJar(t *testing.T) {
	store := NewJarStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.SetCookies(ctx, domain.CookieSet{Values: map[string]string{"a": "1"}}, "pix.example"))
	require.NoError(t, store.SetCookies(ctx, domain.CookieSet{Values: map[string]string{"b": "2"}}, "pix.example"))

	got, err := store.CookiesForDomain(ctx, "pix.example")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Values["a"])
	assert.Equal(t, "2", got.Values["b"])
}

func TestJarsAreScopedPerDomain(t *testing.T) {
	store := NewJarStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.SetCookies(ctx, domain.CookieSet{Values: map[string]string{"k": "child"}}, "app.pix.example"))
	require.NoError(t, store.SetCookies(ctx, domain.CookieSet{Values: map[string]string{"k": "parent"}}, "pix.example"))

	child, err := store.CookiesForDomain(ctx, "app.pix.example")
	require.NoError(t, err)
	parent, err := store.CookiesForDomain(ctx, "pix.example")
	require.NoError(t, err)

	assert.Equal(t, "child", child.Values["k"])
	assert.Equal(t, "parent", parent.Values["k"])
}

func TestJarFileMode(t *testing.T) {
	dir := t.TempDir()
	store := NewJarStore(dir)

	require.NoError(t, store.SetCookies(context.Background(), domain.CookieSet{Values: map[string]string{"k": "v"}}, "pix.example"))

	info, err := os.Stat(filepath.Join(dir, "pix.example.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestInvalidDomainRejected(t *testing.T) {
	store := NewJarStore(t.TempDir())
	ctx := context.Background()

	_, err := store.CookiesForDomain(ctx, "")
	assert.Error(t, err)

	err = store.SetCookies(ctx, domain.CookieSet{Values: map[string]string{"k": "v"}}, "../escape")
	assert.Error(t, err)
}

func TestLeadingDotNormalized(t *testing.T) {
	store := NewJarStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.SetCookies(ctx, domain.CookieSet{Values: map[string]string{"k": "v"}}, ".pix.example"))

	got, err := store.CookiesForDomain(ctx, "pix.example")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Values["k"])
}
