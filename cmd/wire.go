package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"

	"github.com/Sakenfor/pixsim7-sub009/internal/adapters/authority"
	"github.com/Sakenfor/pixsim7-sub009/internal/adapters/cookies"
	statusadapter "github.com/Sakenfor/pixsim7-sub009/internal/adapters/render/status"
	tomlstate "github.com/Sakenfor/pixsim7-sub009/internal/adapters/state/toml"
	"github.com/Sakenfor/pixsim7-sub009/internal/application"
	"github.com/Sakenfor/pixsim7-sub009/internal/config"
	"github.com/Sakenfor/pixsim7-sub009/internal/dispatch"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

type app struct {
	cfg        config.Config
	logger     *slog.Logger
	dispatcher *dispatch.Dispatcher
	directory  *application.DirectoryService
	renderer   func([]domain.ProviderAccount, domain.JwtHealthReport, statusadapter.RenderOptions) (string, error)
	now        func() time.Time
}

// logNotifier is the CLI's stand-in for a UI listener: upstream change
// notifications become log lines instead of render triggers.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) AccountsChanged(reason string) {
	n.logger.Debug("accounts changed", "reason", reason)
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger()
	clock := clockwork.NewRealClock()

	state, err := tomlstate.NewStore(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("wire state store: %w", err)
	}

	client := authority.NewClient(cfg.AuthorityBaseURL, &http.Client{Timeout: 30 * time.Second})
	bridge := cookies.NewJarStore(cfg.CookieJarDir)
	notifier := logNotifier{logger: logger}

	directory := application.NewDirectoryService(client, state, clock, logger, cfg.DirectoryTTL)
	health := application.NewSessionHealthService(client, state, clock, logger, cfg.HealthTTL)
	cookieSvc := application.NewCookieService(bridge, logger)
	creditSync := application.NewCreditSyncService(client, state, clock, logger, notifier,
		cfg.SyncThrottle, cfg.WatchdogTimeout, directory, health)
	reauth := application.NewReauthService(client, health, notifier, clock, logger)
	login := application.NewLoginService(directory, health, cookieSvc, client, state, cfg.TargetFor, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatch.New(directory, creditSync, health, cookieSvc, reauth, login, logger),
		directory:  directory,
		renderer:   statusadapter.Render,
		now:        time.Now,
	}, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("PSYNC_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
