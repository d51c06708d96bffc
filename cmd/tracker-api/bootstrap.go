package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openparcel/parceltrack/config"
	"github.com/openparcel/parceltrack/internal/broker/kafka"
	"github.com/openparcel/parceltrack/internal/cache/rediscache"
	"github.com/openparcel/parceltrack/internal/geocode"
	"github.com/openparcel/parceltrack/internal/geocode/nominatim"
	"github.com/openparcel/parceltrack/internal/progress"
	"github.com/openparcel/parceltrack/internal/services/packages"
	"github.com/openparcel/parceltrack/internal/storage/pgpackages"
	"github.com/openparcel/parceltrack/internal/timezone"
)

type trackerAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   trackerAPIOpts
	svc    *packages.Service

	consumer *kafka.Consumer
	producer *kafka.Producer
	closeDB  func()
}

func mustBootstrapTrackerAPI() *trackerAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.Tracker.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.Tracker.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "tracker-api"
	}
	updatedTopic := cfg.Kafka.PackageUpdatedTopicName
	if updatedTopic == "" {
		updatedTopic = "package.updated"
	}
	reportedTopic := cfg.Kafka.PositionReportedTopicName
	if reportedTopic == "" {
		reportedTopic = "position.reported"
	}

	geocodeTimeout := time.Duration(cfg.Tracker.GeocodeTimeoutSeconds) * time.Second
	if geocodeTimeout <= 0 {
		geocodeTimeout = 6 * time.Second
	}
	geocodeTTL := time.Duration(cfg.Tracker.GeocodeCacheTTLSeconds) * time.Second
	if geocodeTTL <= 0 {
		geocodeTTL = 24 * time.Hour
	}
	geocodeLimit := int64(cfg.Tracker.GeocodeRateLimitPerMinute)
	if geocodeLimit <= 0 {
		geocodeLimit = 60
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	oracle := nominatim.New(cfg.Tracker.GeocodeBaseURL, geocodeTimeout)
	geo := geocode.NewCached(oracle, rc, rc, geocodeTTL, geocodeLimit)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)
	consumer := kafka.NewConsumer(brokers, reportedTopic, consumerGroup)

	svc := packages.New(st, geo, timezone.Default(), progress.New(cfg.Tracker.DeliveredRadiusKm), producer, updatedTopic)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &trackerAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: trackerAPIOpts{
			httpAddr:      httpAddr,
			reportedTopic: reportedTopic,
			consumerGroup: consumerGroup,
		},
		svc:      svc,
		consumer: consumer,
		producer: producer,
		closeDB:  st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgpackages.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgpackages.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *trackerAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *trackerAPIApp) Run() error {
	return runTrackerAPI(a.ctx, a.opts, a.svc, a.consumer)
}
