package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".psync"
	envPrefix  = "PSYNC"

	// The throttle window and watchdog timeout are empirically tuned and
	// deliberately kept as independent knobs.
	defaultSyncThrottle    = 10 * time.Minute
	defaultWatchdogTimeout = 2 * time.Minute
	defaultHealthTTL       = 5 * time.Minute
	defaultDirectoryTTL    = time.Minute
)

type Config struct {
	AuthorityBaseURL string
	SyncThrottle     time.Duration
	WatchdogTimeout  time.Duration
	HealthTTL        time.Duration
	DirectoryTTL     time.Duration
	StatePath        string
	CookieJarDir     string
	Providers        []domain.ProviderTarget
}

type providerEntry struct {
	ID           string `mapstructure:"id"`
	CanonicalURL string `mapstructure:"canonical_url"`
	CookieDomain string `mapstructure:"cookie_domain"`
}

func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault("authority.base_url", "http://127.0.0.1:8700")
	cfg.SetDefault("sync.throttle", defaultSyncThrottle)
	cfg.SetDefault("sync.watchdog_timeout", defaultWatchdogTimeout)
	cfg.SetDefault("health.ttl", defaultHealthTTL)
	cfg.SetDefault("directory.ttl", defaultDirectoryTTL)
	cfg.SetDefault("state.path", filepath.Join(homeDir, configDir, "state.toml"))
	cfg.SetDefault("cookies.jar_dir", filepath.Join(homeDir, configDir, "jars"))

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var entries []providerEntry
	if err := cfg.UnmarshalKey("providers", &entries); err != nil {
		return Config{}, fmt.Errorf("decode provider targets: %w", err)
	}

	providers := make([]domain.ProviderTarget, 0, len(entries))
	for _, entry := range entries {
		target := domain.ProviderTarget{
			Provider:     domain.ProviderID(strings.TrimSpace(entry.ID)),
			CanonicalURL: strings.TrimSpace(entry.CanonicalURL),
			CookieDomain: strings.TrimSpace(entry.CookieDomain),
		}
		if err := target.Validate(); err != nil {
			return Config{}, fmt.Errorf("invalid provider target: %w", err)
		}
		providers = append(providers, target)
	}

	loaded := Config{
		AuthorityBaseURL: strings.TrimRight(cfg.GetString("authority.base_url"), "/"),
		SyncThrottle:     cfg.GetDuration("sync.throttle"),
		WatchdogTimeout:  cfg.GetDuration("sync.watchdog_timeout"),
		HealthTTL:        cfg.GetDuration("health.ttl"),
		DirectoryTTL:     cfg.GetDuration("directory.ttl"),
		StatePath:        cfg.GetString("state.path"),
		CookieJarDir:     cfg.GetString("cookies.jar_dir"),
		Providers:        providers,
	}

	if loaded.AuthorityBaseURL == "" {
		return Config{}, errors.New("authority base url is empty")
	}

	return loaded, nil
}

// TargetFor resolves the static target for a provider.
func (c Config) TargetFor(provider domain.ProviderID) (domain.ProviderTarget, error) {
	for _, target := range c.Providers {
		if target.Provider == provider {
			return target, nil
		}
	}
	return domain.ProviderTarget{}, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
}
