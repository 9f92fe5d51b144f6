package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/cache"
	"github.com/Leganyst/vetclinic-booking/internal/config"
	"github.com/Leganyst/vetclinic-booking/internal/db"
	"github.com/Leganyst/vetclinic-booking/internal/logging"
	"github.com/Leganyst/vetclinic-booking/internal/metrics"
	"github.com/Leganyst/vetclinic-booking/internal/repository"
	"github.com/Leganyst/vetclinic-booking/internal/service"
)

// app — собранные зависимости процесса.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	redis    *redis.Client
	registry *prometheus.Registry

	catalog  *service.CatalogService
	bookings *service.BookingService
	slots    *service.SlotService
}

func newApp(ctx context.Context) (*app, error) {
	// 1. Конфиг из env / config.yaml.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	a := &app{cfg: cfg, log: logger, db: gormDB, registry: prometheus.NewRegistry()}

	// 3. Redis для кэша каталога — только если задан адрес.
	var catalogCache service.CatalogCache
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = a.redis.Close()
			a.redis = nil
		} else {
			catalogCache = cache.NewCatalogCache(a.redis, cfg.CatalogCacheTTL())
		}
	}

	// 4. Репозитории (реализации на GORM).
	slotRepo := repository.NewGormSlotRepository(gormDB)
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	serviceRepo := repository.NewGormServiceRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)
	scheduleRepo := repository.NewGormScheduleRepository(gormDB)
	providerRepo := repository.NewGormProviderRepository(gormDB)

	// 5. Сервисы.
	a.catalog = service.NewCatalogService(serviceRepo, catalogCache, cfg.SlotGridMinutes, logger)
	a.bookings = service.NewBookingService(
		gormDB,
		slotRepo,
		bookingRepo,
		serviceRepo,
		eventRepo,
		a.catalog,
		metrics.NewBookingMetrics(a.registry),
		logger,
		service.BookingOptions{
			GridMinutes:  cfg.SlotGridMinutes,
			MaxAttempts:  cfg.BookingMaxAttempts,
			RetryBackoff: cfg.RetryBackoff(),
		},
	)
	a.slots = service.NewSlotService(
		slotRepo,
		scheduleRepo,
		providerRepo,
		cfg.SlotGridMinutes,
		cfg.SlotListMaxWindow(),
		logger,
	)

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}
