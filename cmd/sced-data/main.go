package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"sced-data/internal/config"
	"sced-data/internal/database"
	"sced-data/internal/httpapi"
	"sced-data/internal/logger"
	"sced-data/internal/mqttin"
	"sced-data/internal/notifier"
	"sced-data/internal/observability"
	"sced-data/internal/repository"
	"sced-data/internal/service"
	"sced-data/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("sced-data starting")

	// ============================================
	// 基础设施
	// ============================================
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	var kv store.KV
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		kv = store.NewRedisKV(redisClient)
		log.Info("redis cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	// ============================================
	// 仓库与服务
	// ============================================
	devicesRepo := repository.NewPostgresDevicesRepo(db, log)
	readingsRepo := repository.NewPostgresReadingsRepo(db, log)
	alertsRepo := repository.NewPostgresAlertsRepo(db, log)
	sheltersRepo := repository.NewPostgresSheltersRepo(db, log)
	resourcesRepo := repository.NewPostgresResourcesRepo(db, log)

	txRunner := repository.NewTxRunner(db, log)
	txRunner.OnRetry(func() { metrics.TxRetries.Inc() })

	var alertNotifier service.AlertNotifier
	if cfg.WebhookURL != "" {
		alertNotifier = notifier.NewWebhookNotifier(cfg.WebhookURL, log)
		log.Info("alert webhook enabled")
	}

	ingestSvc := service.NewIngestService(devicesRepo, readingsRepo, alertsRepo,
		txRunner, clock, metrics, alertNotifier, log)
	alertSvc := service.NewAlertService(alertsRepo, clock, log)
	deviceSvc := service.NewDeviceService(devicesRepo, log)
	shelterSvc := service.NewShelterService(sheltersRepo, log)
	resourceSvc := service.NewResourceService(resourcesRepo, log)
	statsSvc := service.NewStatisticsService(alertsRepo, devicesRepo, readingsRepo,
		sheltersRepo, resourcesRepo, kv, cfg.CacheTTL, clock, metrics, log)

	// ============================================
	// HTTP 路由
	// ============================================
	router := httpapi.NewRouter(log)
	router.RegisterDeviceDataRoutes(httpapi.NewDeviceDataHandler(ingestSvc, log))
	router.RegisterAlertRoutes(httpapi.NewAlertsHandler(alertSvc, log))
	router.RegisterDeviceRoutes(httpapi.NewDevicesHandler(deviceSvc, log))
	router.RegisterShelterRoutes(httpapi.NewSheltersHandler(shelterSvc, log))
	router.RegisterResourceRoutes(httpapi.NewResourcesHandler(resourceSvc, log))
	router.RegisterStatisticsRoutes(httpapi.NewStatisticsHandler(statsSvc, log))
	router.RegisterOpsRoutes()

	server := httpapi.NewServer(cfg.HTTPAddr, router, log)

	// ============================================
	// MQTT 消费者（可选）
	// ============================================
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	var consumer *mqttin.Consumer
	if cfg.MQTTEnabled {
		consumer, err = mqttin.NewConsumer(cfg.MQTTBroker, cfg.MQTTClientID,
			cfg.MQTTUsername, cfg.MQTTPassword, ingestSvc, log)
		if err != nil {
			log.Fatal("failed to connect to mqtt broker", zap.Error(err))
		}
		if err := consumer.Start(consumerCtx); err != nil {
			log.Fatal("failed to start mqtt consumer", zap.Error(err))
		}
	}

	// ============================================
	// 启动与优雅退出
	// ============================================
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Fatal("http server failed", zap.Error(err))
		}
	}

	if consumer != nil {
		consumer.Stop()
	}
	cancelConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("http server shutdown error", zap.Error(err))
	}

	log.Info("sced-data stopped")
}
