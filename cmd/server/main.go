package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/config"
	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/logger"
	"github.com/oggyb/matchmaker/internal/notify"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/server"
	"github.com/oggyb/matchmaker/internal/service/admin"
	"github.com/oggyb/matchmaker/internal/service/chat"
	"github.com/oggyb/matchmaker/internal/service/feed"
	"github.com/oggyb/matchmaker/internal/service/inbox"
	"github.com/oggyb/matchmaker/internal/service/interaction"
	"github.com/oggyb/matchmaker/internal/service/match"
	"github.com/oggyb/matchmaker/internal/service/profile"
	"github.com/oggyb/matchmaker/internal/session"
)

func main() {
	// .env is optional; the process environment wins
	_ = godotenv.Load()

	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	users := repository.NewUserRepository(database)

	notifiers := notify.Multi{notify.NewInApp(repository.NewNotificationRepository(database))}
	if cfg.PushEnabled() {
		client, err := notify.NewFirebaseMessaging(ctx, cfg)
		if err != nil {
			log.Warn("push disabled", "err", err)
		} else {
			notifiers = append(notifiers, notify.NewPush(client, users))
		}
	}

	appCtx := app.New(cfg, database, redisCache, log, notifiers)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	sessions := session.NewStore(redisCache, users, log)
	matches := match.NewService(appCtx)

	grpcServer := server.NewGRPCServer(
		log,
		server.NewAuth(cfg.Auth.JWTSecret, sessions, log).AllowSignup(profile.RegisterMethod),
		interaction.NewRegistrar(appCtx, matches),
		match.NewRegistrar(matches),
		feed.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx, matches),
		admin.NewRegistrar(appCtx, matches, sessions),
		inbox.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
	)

	go func() {
		if err := server.StartMetricsServer(ctx, cfg.Metrics.Addr); err != nil {
			log.Error("metrics server stopped", "err", err)
		}
	}()

	log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port, "env", cfg.App.ENV)
	if err := server.StartGRPCServer(ctx, cfg, grpcServer); err != nil {
		log.Error("failed to start gRPC server", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
