package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"alliancedash/internal/ratelimit"
	"alliancedash/internal/util"
	"alliancedash/pkg/store"
	"alliancedash/services/dashboard/internal/app"
	"alliancedash/services/dashboard/internal/config"
	"alliancedash/services/dashboard/internal/server"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens before the process
// exits. Failures are logged here, through the configured logger once it
// exists.
func run() (err error) {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		return err
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		slog.Error("failed to parse session TTL", "err", err)
		return err
	}
	leeway, err := config.ParseJWTLeeway(cfg.JWTLeeway)
	if err != nil {
		slog.Error("failed to parse jwt leeway", "err", err)
		return err
	}
	trusted, err := util.ParseTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		slog.Error("failed to parse trusted proxies", "err", err)
		return err
	}

	logger, logCloser, err := util.InitLogger(util.LogOptions{Level: cfg.LogLevel, Dir: cfg.LogsDir})
	if err != nil {
		slog.Error("failed to init logger", "err", err)
		return err
	}
	defer func() {
		if err != nil {
			logger.Error("dashboard stopped", "err", err)
		}
		logCloser.Close()
	}()

	appCore, err := app.New(app.Config{
		DatabaseURL:            cfg.DatabaseURL,
		SessionSecret:          []byte(cfg.SessionSecret),
		SessionTTL:             sessionTTL,
		JWT:                    store.JWTOptions{Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience, Leeway: leeway},
		RedisAddr:              cfg.RedisAddr,
		RedisPassword:          cfg.RedisPassword,
		BootstrapAdminPassword: cfg.BootstrapAdminPassword,
		ArchiveDir:             cfg.ArchiveDir,
		MinioEndpoint:          cfg.MinioEndpoint,
		MinioAccessKey:         cfg.MinioAccessKey,
		MinioSecretKey:         cfg.MinioSecretKey,
		MinioBucket:            cfg.MinioBucket,
		MinioPrefix:            cfg.MinioPrefix,
		MinioUseSSL:            cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer appCore.Close()

	var counter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rc, err := ratelimit.NewRedisCounter(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("init rate limit counter: %w", err)
		}
		defer rc.Close()
		counter = rc
	}

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		Counter:                    counter,
		TrustedProxies:             trusted,
		CORSOrigins:                cfg.CORSOrigins,
		LoginRateLimitPerMinute:    cfg.LoginRateLimitPerMinute,
		PasswordRateLimitPerMinute: cfg.PasswordRateLimitPerMinute,
		MaxUploadBytes:             cfg.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "max_connections", cfg.MaxConnections)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
