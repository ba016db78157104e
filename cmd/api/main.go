package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicbook/internal/api"
	"clinicbook/internal/cal"
	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/domain"
	"clinicbook/internal/events"
	"clinicbook/internal/export"
	"clinicbook/internal/google"
	"clinicbook/internal/logging"
	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
	"clinicbook/internal/notify"
	"clinicbook/internal/repository"
	"clinicbook/internal/service"
	"clinicbook/internal/slots"
	"clinicbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	eventTypes, err := loadEventTypes(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	durations := make(map[int64]int, len(eventTypes))
	for _, et := range eventTypes {
		durations[et.ID] = et.DurationMinutes
	}

	calClient := cal.NewClient(cfg.Cal, &logger)

	availability, err := buildAvailability(cfg, db, calClient, eventTypes, durations, &logger)
	if err != nil {
		return err
	}

	cache := buildCache(cfg, redisClient, &logger)

	bus := events.NewEventBus()
	initTelegram(cfg, bus, &logger)

	syncWorker := initSheetsWorker(ctx, cfg, db, redisClient, &logger)

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	bookingService := service.NewBookingService(db, calClient, availability, cache, bus, syncWorker, loc, durations, &logger)
	exporter := export.NewExcelExporter(db, cfg.Exports.Path, &logger)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, bookingService, exporter, &logger)
	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// loadEventTypes prefers the standalone event types file; the inline
// config list is the fallback for small deployments.
func loadEventTypes(cfg *config.Config, logger *zerolog.Logger) ([]models.EventType, error) {
	path := os.Getenv("EVENT_TYPES_PATH")
	if path == "" {
		path = "configs/event_types.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if len(cfg.EventTypes) > 0 {
			return cfg.EventTypes, nil
		}
		logger.Error().Err(err).Str("event_types_path", path).Msg("read event types")
		return nil, err
	}

	var parsed struct {
		EventTypes []models.EventType `yaml:"event_types"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		logger.Error().Err(err).Str("event_types_path", path).Msg("parse event types")
		return nil, err
	}

	if err := config.ValidateEventTypes(parsed.EventTypes); err != nil {
		return nil, err
	}
	return parsed.EventTypes, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func buildAvailability(
	cfg *config.Config,
	db *database.DB,
	calClient *cal.Client,
	eventTypes []models.EventType,
	durations map[int64]int,
	logger *zerolog.Logger,
) (domain.AvailabilityProvider, error) {
	if cfg.Availability.Source == "local" {
		schedule, err := slots.NewSchedule(
			cfg.Schedule.Timezone,
			cfg.Schedule.WorkStart,
			cfg.Schedule.WorkEnd,
			cfg.Schedule.BreakStart,
			cfg.Schedule.BreakEnd,
			eventTypes,
		)
		if err != nil {
			return nil, fmt.Errorf("build schedule: %w", err)
		}
		logger.Info().Msg("using local slot engine for availability")
		return slots.NewEngine(schedule, db, logger), nil
	}

	logger.Info().Msg("using scheduling provider for availability")
	return cal.NewProvider(calClient, durations, cfg.Schedule.Timezone), nil
}

func buildCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.AvailabilityCache {
	ttl := time.Duration(cfg.Availability.CacheTTLSeconds) * time.Second
	memory := repository.NewMemoryAvailabilityCache(ttl)
	if redisClient == nil {
		return memory
	}

	primary := repository.NewRedisAvailabilityCache(redisClient, ttl)
	return repository.NewFailoverAvailabilityCache(primary, memory, logger)
}

func initTelegram(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.ChatIDs) == 0 {
		return
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}
	notifier.SubscribeToEvents(bus)
	logger.Info().Msg("telegram notifications enabled")
}

func initSheetsWorker(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) domain.SyncWorker {
	if cfg.Google.CredentialsFile == "" || cfg.Google.BookingsSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.BookingsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	logger.Info().Msg("google sheets connected")

	sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.DefaultSheetRetryPolicy(), nil)
	go sheetsWorker.Start(ctx)
	return sheetsWorker
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
