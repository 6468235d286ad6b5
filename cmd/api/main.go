package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pagedesk/blogapi/internal/config"
	"github.com/pagedesk/blogapi/internal/db"
	httpx "github.com/pagedesk/blogapi/internal/http"
	"github.com/pagedesk/blogapi/internal/observability"
)

func main() {
	// .env is a dev convenience; a missing file is not an error
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env, cfg.TracingEnabled)

	if cfg.JWTSecret == "" {
		log.Error("ACCESS_TOKEN_SECRET is required")
		os.Exit(1)
	}

	// optional tracing
	var shutdownTracer func(context.Context) error

	if cfg.TracingEnabled {
		var err error

		shutdownTracer, err = observability.InitTracer(context.Background(), "blogapi", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
	}

	// database pool + schema

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}

	migrateCtx, cancelMigrate := config.WithTimeout(30 * time.Second)

	err = db.Migrate(migrateCtx, cfg.DBURL)

	cancelMigrate()

	if err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)

	err = db.EnsureAdminUser(seedCtx, pool, cfg)

	cancelSeed()

	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	// set up the router
	router := httpx.NewRouter(log, pool, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: stop accepting, drain in-flight requests, then
	// release the pool.

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	pool.Close()

	if shutdownTracer != nil {
		flushCtx, cancelFlush := config.WithTimeout(5 * time.Second)
		_ = shutdownTracer(flushCtx)
		cancelFlush()
	}
}
