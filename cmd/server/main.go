package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teneobot-lab/POS/internal/cache"
	"github.com/teneobot-lab/POS/internal/config"
	"github.com/teneobot-lab/POS/internal/httpapi"
	"github.com/teneobot-lab/POS/internal/service"
	"github.com/teneobot-lab/POS/internal/store"
	"github.com/teneobot-lab/POS/internal/store/memory"
	pgstore "github.com/teneobot-lab/POS/internal/store/postgres"
	"github.com/teneobot-lab/POS/internal/syncclient"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var storage store.Storage
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		storage = pg
		closers = append(closers, pg.Close)
		log.Println("storage: postgres")
	} else {
		storage = memory.NewSeeded()
		log.Println("storage: in-memory")
	}

	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	opts := []service.Option{
		service.WithReportCache(reportCache, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second),
	}
	if cfg.SyncBaseURL != "" {
		opts = append(opts, service.WithRemote(syncclient.New(cfg.SyncBaseURL)))
		log.Printf("remote sync: %s", cfg.SyncBaseURL)
	} else {
		log.Println("remote sync: disabled")
	}

	svc := service.New(storage, opts...)
	if err := svc.Load(ctx); err != nil {
		log.Fatalf("load state: %v", err)
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.OperatorUsername, cfg.OperatorPassword)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	if err := svc.Flush(shutdownCtx); err != nil {
		log.Printf("flush error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.OperatorPassword == "" {
		return fmt.Errorf("OPERATOR_PASSWORD must be set")
	}
	return nil
}
