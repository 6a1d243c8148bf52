package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	myPostgresStore "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/db/postgres"
	myRedisStore "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/db/redis"
	myHTTP "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/authz"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/hasher"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/jwt"
	appsvc "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/service"
	repo "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/metrics"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/migrate"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/readiness"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/server"
	"golang.org/x/sync/errgroup"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	storeReadyAttempts = 5
	storeReadyBackoff  = 500 * time.Millisecond
)

// openStore подключает выбранный STORE_BACKEND без обращения к серверу.
// migrateUp равен nil, если бэкенду миграции не нужны. closeFn закрывает
// соединения.
func openStore(cfg *config.Config) (store repo.SessionStore, migrateUp func() error, closeFn func(), err error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		cli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return myRedisStore.NewRedisSessionStore(cli), nil, func() { _ = cli.Close() }, nil

	default:
		// пинг делает readiness.Wait с ретраями
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
			TranslateError:       true,
			DisableAutomaticPing: true,
			Logger:               gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db handle: %w", err)
		}
		up := func() error { return migrate.Up(sqlDB) }
		return myPostgresStore.NewPostgresSessionStore(db), up, func() { _ = sqlDB.Close() }, nil
	}
}

// prepareStore ждёт хранилище и только потом применяет миграции.
func prepareStore(
	ctx context.Context,
	store readiness.Pinger,
	migrateUp func() error,
	attempts uint64,
	backoff time.Duration,
	log *zap.Logger,
) error {
	if err := readiness.Wait(ctx, store, attempts, backoff, log); err != nil {
		return fmt.Errorf("session store is not reachable: %w", err)
	}
	if migrateUp == nil {
		return nil
	}
	if err := migrateUp(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations applied")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("info").Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	if zapLog.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, migrateUp, closeStore, err := openStore(cfg)
	if err != nil {
		zapLog.Fatal("failed to open session store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	if err := prepareStore(rootCtx, store, migrateUp, storeReadyAttempts, storeReadyBackoff, zapLog); err != nil {
		zapLog.Fatal("failed to prepare session store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}

	codec, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}

	svc := appsvc.New(store, hasher.New(cfg), codec, cfg, dto.NewValidator(), zapLog)

	g, ctx := errgroup.WithContext(rootCtx)

	router := myHTTP.NewRouter(ctx, myHTTP.Deps{
		Service: svc,
		Gate:    authz.NewGate(codec),
		Store:   store,
		Config:  cfg,
		Metrics: metrics.New(),
		Log:     zapLog,
	})

	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg, router, zapLog)
	})

	zapLog.Info("auth service started",
		zap.String("backend", cfg.StoreBackend),
		zap.String("hasher", cfg.PasswordHasher),
	)

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
		return
	}
	zapLog.Info("shutdown complete")
}
