package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/linkup/config"
	"github.com/d60-Lab/linkup/internal/api/handler"
	"github.com/d60-Lab/linkup/internal/api/router"
	"github.com/d60-Lab/linkup/internal/cache"
	"github.com/d60-Lab/linkup/internal/changefeed"
	"github.com/d60-Lab/linkup/internal/feed"
	"github.com/d60-Lab/linkup/internal/repository"
	"github.com/d60-Lab/linkup/internal/service"
	"github.com/d60-Lab/linkup/pkg/database"
	"github.com/d60-Lab/linkup/pkg/logger"
	"github.com/d60-Lab/linkup/pkg/tracing"
)

// @title LinkUp Feed Service API
// @version 1.0
// @description 社交信息流服务：关注关系、帖子、实时变更与通知
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, "linkup", cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn("tracing init failed", zap.Error(err))
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// 仓储
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// 变更通知链路：outbox -> dispatcher -> redis pub/sub
	bus := changefeed.NewBus(rdb)
	dispatcher := changefeed.NewDispatcher(db, bus, 128, cfg.Feed.PollInterval)
	stopDispatcher := dispatcher.Start()
	defer func() { _ = stopDispatcher(context.Background()) }()

	// 粉丝表异步冗余
	replicator := service.NewFanReplicator(fanRepo, 10000)
	stopReplicator := replicator.Start(4)
	defer func() { _ = stopReplicator(context.Background()) }()

	relService := service.NewRelationshipService(followRepo, fanRepo, replicator)
	postService := service.NewPostService(db, postRepo, notifRepo)
	profiles := cache.NewProfileCache(userRepo, rdb, 5*time.Minute)

	feedManager := feed.NewManager(bus, followRepo, postRepo, profiles, cfg.Feed.PageSize, cfg.Feed.EventBuffer)
	defer feedManager.CloseAll()

	h := handler.New(relService, postService, userRepo, notifRepo, feedManager, bus, profiles)
	engine := router.New(cfg, h)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: engine}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
