package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/sastranest/nest/internal/adapters/http"
	wssignal "github.com/sastranest/nest/internal/adapters/signal"
	"github.com/sastranest/nest/internal/app"
	"github.com/sastranest/nest/internal/app/orch"
	"github.com/sastranest/nest/internal/config"
	"github.com/sastranest/nest/internal/directory"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("directory store init failed")
	}
	defer closeStore()

	if err := directory.Seed(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default room")
	}

	reg := app.NewRegistry()
	members := app.NewMembership()
	relay := app.NewRelay(reg, members)
	limiter := app.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)

	o := orch.New(reg, members, store, relay)
	o.Capacity = cfg.RoomCapacity

	ctl := wssignal.NewSignalWSController(o, limiter, cfg)
	r := router.SetupRouter(ctx, cfg, o, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Nest server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

// newStore picks redis when an address is configured, otherwise the
// in-process store.
func newStore(ctx context.Context, cfg *config.Config) (directory.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info().Str("module", "directory").Msg("using in-memory room directory")
		return directory.NewMemoryStore(), func() {}, nil
	}
	rs, err := directory.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("module", "directory").Str("addr", cfg.Redis.Addr).Msg("using redis room directory")
	return rs, func() {
		if err := rs.Close(); err != nil {
			log.Error().Err(err).Str("module", "directory").Msg("redis close")
		}
	}, nil
}
