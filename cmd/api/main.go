package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/cache"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/config"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/db"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/events"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/handlers"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/logger"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/account"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/directory"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg, zl)
	if err != nil {
		zl.Fatal("open store", zap.Error(err))
	}

	hub := realtime.NewHub(zl)
	go hub.Run(ctx)

	var (
		notifier  booking.Notifier = realtime.LocalNotifier{Hub: hub}
		publisher events.Publisher = events.Nop{}
		rdb       *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb, err = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, zl)
		if err != nil {
			zl.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()

		notifier = realtime.RedisNotifier{RDB: rdb}
		go hub.ListenRedis(ctx, rdb)
	} else {
		zl.Warn("REDIS_ADDR not set: worker cache and notifications limited to this instance")
	}
	workerCache := cache.ForClient(rdb)

	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		defer kp.Close()
		publisher = events.NewBreakerPublisher(kp, zl)
		zl.Info("publishing booking events to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	authSvc := auth.NewService(st, auth.Options{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL(),
		BcryptCost: cfg.BcryptCost,
	}, zl)
	directorySvc := directory.NewService(st, workerCache, cfg.WorkerCacheTTL, zl)
	accountSvc := account.NewService(st, directorySvc, zl)
	bookingSvc := booking.NewService(st, publisher, notifier, zl)

	deps := handlers.Deps{
		Auth:        authSvc,
		Accounts:    accountSvc,
		Directory:   directorySvc,
		Bookings:    bookingSvc,
		Hub:         hub,
		Log:         zl,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
	}
	if cfg.GoogleEnabled() {
		deps.Google = &handlers.GoogleOAuthHandler{
			Auth:            authSvc,
			GoogleClientID:  cfg.GoogleClientID,
			GoogleSecret:    cfg.GoogleSecret,
			GoogleRedirect:  cfg.GoogleRedirect,
			FrontendBaseURL: cfg.FrontendBaseURL,
			Log:             zl,
		}
	}
	app := handlers.NewApp(deps)

	go func() {
		<-ctx.Done()
		zl.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zl.Error("shutdown", zap.Error(err))
		}
	}()

	zl.Info("listening", zap.String("port", cfg.AppPort), zap.String("store", cfg.StoreDriver))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		zl.Fatal("listen", zap.Error(err))
	}
}

func openStore(cfg config.Config, zl *zap.Logger) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		zl.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), nil
	}

	gdb, err := db.Connect(cfg.DBDSN, zl)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}
	return store.NewGormStore(gdb), nil
}
