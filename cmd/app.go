package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/backup"
	"github.com/bnema/addonctl/internal/cache"
	"github.com/bnema/addonctl/internal/config"
	"github.com/bnema/addonctl/internal/editor"
	"github.com/bnema/addonctl/internal/logger"
	"github.com/bnema/addonctl/internal/netguard"
	"github.com/bnema/addonctl/internal/platform"
	"github.com/bnema/addonctl/internal/profiles"
	"github.com/bnema/addonctl/internal/session"
)

// app bundles the collaborators shared by every command
type app struct {
	cfg       *config.Config
	backend   cache.Backend
	store     *session.Store
	client    *platform.Client
	manifests *platform.ManifestFetcher
	gate      *editor.Gate
	journal   *backup.Journal
	editor    *editor.Editor
	session   *session.Service
	profiles  *profiles.DB
}

var shared *app

func getLogger() *log.Logger {
	return logger.Get()
}

// getApp returns the shared application, wiring it on first use. The cached
// collection is loaded and the session's monitoring mode restored.
func getApp(ctx context.Context) (*app, error) {
	if shared != nil {
		return shared, nil
	}
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	a := &app{cfg: cfg, gate: &editor.Gate{}}
	l := getLogger()

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	a.backend = backend
	a.store = session.NewStore(backend)

	guard := netguard.New(cfg.AllowPrivate)
	a.client = platform.NewClient(platform.Options{
		APIURL:          cfg.APIURL,
		Timeout:         cfg.APITimeout,
		RetryMax:        cfg.APIRetries,
		MaxResponseSize: cfg.MaxResponseSize,
		Logger:          l,
	})
	a.manifests = platform.NewManifestFetcher(platform.ManifestOptions{
		Guard:           guard,
		Timeout:         cfg.ManifestTimeout,
		RetryMax:        cfg.APIRetries,
		MaxResponseSize: cfg.MaxResponseSize,
		Logger:          l,
	})

	journal, err := backup.Open(cfg.Dirs.Journal())
	if err != nil {
		// Pushing still works without the journal
		l.Warn("Failed to open push journal", "error", err)
	} else {
		a.journal = journal
	}

	opts := editor.Options{
		Cache:                 a.store,
		Platform:              a.client,
		Manifests:             a.manifests,
		Credentials:           a.store,
		Terminator:            a.store,
		Gate:                  a.gate,
		HistoryLimit:          cfg.HistoryDepth,
		APITimeout:            cfg.APITimeout,
		ManifestTimeout:       cfg.ManifestTimeout,
		ClearOnRefreshFailure: cfg.ClearOnRefreshFailure,
		Logger:                l,
	}
	if a.journal != nil {
		opts.Journal = a.journal
	}
	a.editor = editor.New(opts)
	a.session = session.NewService(a.store, a.client, a.editor, a.gate, l)

	if _, err := a.session.Restore(ctx); err != nil {
		l.Warn("Failed to restore session", "error", err)
	}
	if err := a.editor.Load(ctx); err != nil {
		l.Warn("Failed to load cached addons", "error", err)
	}

	shared = a
	return a, nil
}

func newBackend(cfg *config.Config) (cache.Backend, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(cfg.RedisURL, cfg.RedisPrefix, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(cfg.Dirs.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		return fc, nil
	}
}

// openProfiles opens the profiles database on first use
func (a *app) openProfiles() (*profiles.DB, error) {
	if a.profiles != nil {
		return a.profiles, nil
	}
	db, err := profiles.Open(a.cfg.Dirs.ProfilesDB())
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles database: %w", err)
	}
	a.profiles = db
	return db, nil
}

// requireSession fails when no account is signed in
func (a *app) requireSession(ctx context.Context) (session.Info, error) {
	info, err := a.session.Status(ctx)
	if err != nil {
		return info, err
	}
	if !info.LoggedIn {
		return info, errors.New("not logged in, run: addonctl login")
	}
	return info, nil
}

func closeApp() {
	if shared == nil {
		return
	}
	if err := shared.profiles.Close(); err != nil {
		getLogger().Warn("Failed to close profiles database", "error", err)
	}
	if err := shared.backend.Close(); err != nil {
		getLogger().Warn("Failed to close cache", "error", err)
	}
	shared = nil
}

// describe turns domain errors into short user-facing messages
func describe(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, addons.ErrReadOnly):
		return errors.New("session is read-only (monitoring another account)")
	case errors.Is(err, addons.ErrBusy):
		return errors.New("another network operation is in progress")
	case addons.IsAuthError(err):
		return errors.New("session expired, run: addonctl login")
	case errors.Is(err, session.ErrNotLoggedIn):
		return errors.New("not logged in, run: addonctl login")
	}
	return err
}
