package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	accountHandler "playdex/internal/account/handler"
	authHandler "playdex/internal/auth/handler"
	authService "playdex/internal/auth/service"
	sessionStore "playdex/internal/auth/store/session"
	"playdex/internal/auth/token"
	catalogCache "playdex/internal/catalog/cache"
	catalogHandler "playdex/internal/catalog/handler"
	catalogService "playdex/internal/catalog/service"
	"playdex/internal/platform/config"
	"playdex/internal/platform/health"
	"playdex/internal/platform/httpserver"
	"playdex/internal/platform/logger"
	"playdex/internal/platform/metrics"
	"playdex/internal/steam"
	httptransport "playdex/internal/transport/http"
)

const sweepInterval = 15 * time.Minute

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("initializing playdex",
		"addr", cfg.Addr,
		"catalog_ttl", cfg.CatalogTTL,
		"session_ttl", cfg.SessionTTL,
	)

	m := metrics.New()

	client := steam.New(steam.Config{
		APIKey:    cfg.SteamAPIKey,
		ReturnURL: cfg.OpenIDReturnURL,
		Realm:     cfg.OpenIDRealm,
		Timeout:   cfg.UpstreamTimeout,
	}, steam.WithLogger(log))

	cache := catalogCache.New(client,
		catalogCache.WithTTL(cfg.CatalogTTL),
		catalogCache.WithLogger(log),
		catalogCache.WithMetrics(m),
	)
	// The first index fetch is best-effort; the cache recovers lazily if the
	// upstream is down at boot.
	primeCtx, cancelPrime := context.WithTimeout(context.Background(), cfg.UpstreamTimeout)
	if err := cache.Prime(primeCtx); err != nil {
		log.Warn("initial catalog fetch failed, continuing unprimed", "error", err)
	}
	cancelPrime()

	sessions := sessionStore.New()
	codec := token.NewCodec(cfg.SessionSigningKey, cfg.SessionTTL)

	auth := authService.New(sessions, client, codec,
		authService.WithLogger(log),
		authService.WithMetrics(m),
		authService.WithSessionTTL(cfg.SessionTTL),
	)
	catalog := catalogService.New(cache, client,
		catalogService.WithLogger(log),
	)

	healthHandler := health.New()
	healthHandler.RegisterCheck("catalog", cache.Ready)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:       authHandler.New(auth, log, authHandler.DefaultCookieName, cfg.SessionTTL),
		Catalog:    catalogHandler.New(catalog, log),
		Account:    accountHandler.New(client, log),
		Health:     healthHandler,
		Guard:      auth,
		CookieName: authHandler.DefaultCookieName,
		Metrics:    m,
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Janitor: expired sessions are also dropped on access, the sweep just
	// bounds how long abandoned ones linger in memory.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := auth.SweepExpired(context.Background()); err != nil {
					log.Error("session sweep failed", "error", err)
				}
			case <-sweepDone:
				return
			}
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")
	close(sweepDone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
