package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"whid-api/internal/adapters/repo"
	"whid-api/internal/api"
	"whid-api/internal/domain"
	"whid-api/internal/infra/cache"
	"whid-api/internal/infra/config"
	"whid-api/internal/infra/db"
	"whid-api/internal/infra/log"
	"whid-api/internal/infra/metrics"
	"whid-api/internal/usecase/channels"
	"whid-api/internal/usecase/epochs"
	"whid-api/internal/usecase/members"
	"whid-api/internal/usecase/messages"
	"whid-api/internal/usecase/reactions"
	"whid-api/internal/usecase/refcheck"
	"whid-api/internal/usecase/scores"
	"whid-api/internal/usecase/voice"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Fatal().Err(err).Msg("api: migrations failed")
	}
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: no database connection")
	}
	defer pool.Close()

	store := repo.NewPostgres(pool)
	clock := domain.SystemClock{}

	var ingestGuard domain.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("api: no redis connection")
		}
		defer rdb.Close()
		ingestGuard = cache.NewRedis(rdb)
	}

	epochsSvc := epochs.NewService(store, clock)
	scoresSvc := scores.NewService(store, epochsSvc, clock, ingestGuard, cfg.Scoring.DefaultScore,
		logger.With().Str("component", "scores").Logger())
	membersSvc := members.NewService(store, scoresSvc)
	channelsSvc := channels.NewService(store)
	refs := refcheck.New(store, store)
	messagesSvc := messages.NewService(store, refs, epochsSvc, clock)
	reactionsSvc := reactions.NewService(store, epochsSvc)
	voiceSvc := voice.NewService(store, refs, epochsSvc)

	server := api.NewServer(
		membersSvc, channelsSvc, messagesSvc, reactionsSvc, voiceSvc, scoresSvc, epochsSvc,
		api.WithLogger(logger.With().Str("component", "api").Logger()),
		api.WithAPITokens(cfg.APITokens),
	)

	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, logger, cfg.Metrics.Addr)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Int("port", cfg.Port).Msg("api: listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
}
