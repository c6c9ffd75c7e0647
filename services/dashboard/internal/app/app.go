package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"alliancedash/pkg/auth"
	"alliancedash/pkg/domain"
	"alliancedash/pkg/storage"
	"alliancedash/pkg/store"
)

// DefaultBootstrapPassword is the initial password of the admin account.
const DefaultBootstrapPassword = "adminpass"

// Config holds runtime configuration for the core application. Store,
// Sessions and Archive may be injected; otherwise they are built from the
// remaining fields.
type Config struct {
	DatabaseURL            string
	SessionSecret          []byte
	SessionTTL             time.Duration
	JWT                    store.JWTOptions
	RedisAddr              string
	RedisPassword          string
	BootstrapAdminPassword string

	ArchiveDir     string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioPrefix    string
	MinioUseSSL    bool

	Store    store.Store
	Sessions store.SessionStore
	Archive  storage.Archive
}

// App is the dashboard core: authentication, ingestion, records and reports.
type App struct {
	store    store.Store
	sessions store.SessionStore
	archive  storage.Archive
	closers  []io.Closer
	now      func() time.Time
}

// New wires the stores and makes sure the default admin exists.
func New(cfg Config) (*App, error) {
	a := &App{now: time.Now}
	var err error

	a.store = cfg.Store
	if a.store == nil {
		gs, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		a.store = gs
		a.closers = append(a.closers, gs)
	}

	a.sessions = cfg.Sessions
	if a.sessions == nil {
		if a.sessions, err = a.newSessionStore(cfg); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.archive = cfg.Archive
	if a.archive == nil {
		if a.archive, err = newArchive(cfg); err != nil {
			a.Close()
			return nil, err
		}
	}

	password := cfg.BootstrapAdminPassword
	if password == "" {
		password = DefaultBootstrapPassword
	}
	if err := a.EnsureDefaultAdmin(password); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) newSessionStore(cfg Config) (store.SessionStore, error) {
	secret := cfg.SessionSecret
	if len(secret) == 0 {
		random, err := store.RandomSecret(32)
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		slog.Warn("no session secret configured; sessions will not survive a restart")
		secret = random
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	var revoker store.TokenRevoker
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rr := store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword, "")
		a.closers = append(a.closers, rr)
		revoker = rr
	} else {
		revoker = store.NewMemoryTokenRevoker()
	}
	sessions, err := store.NewJWTSessionStore(secret, ttl, revoker, cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("init sessions: %w", err)
	}
	return sessions, nil
}

func newArchive(cfg Config) (storage.Archive, error) {
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		ms, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioPrefix, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init minio archive: %w", err)
		}
		return ms, nil
	}
	dir := cfg.ArchiveDir
	if strings.TrimSpace(dir) == "" {
		dir = "uploaded_backups"
	}
	fs, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	return fs, nil
}

// Close releases resources New opened itself.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// EnsureDefaultAdmin creates the bootstrap admin unless it already exists.
// An existing admin keeps its password.
func (a *App) EnsureDefaultAdmin(password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	created, err := a.store.EnsureUser(domain.User{
		Username:     domain.DefaultAdminUsername,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("ensure default admin: %w", err)
	}
	if created {
		slog.Info("default admin created", "username", domain.DefaultAdminUsername)
	}
	return nil
}

func requireSession(session domain.Session) error {
	if !session.Authenticated {
		return ErrUnauthorized
	}
	return nil
}

func requireAdmin(session domain.Session) error {
	if !session.Authenticated {
		return ErrUnauthorized
	}
	if !session.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
