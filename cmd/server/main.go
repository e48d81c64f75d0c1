package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trustcast/internal/aggregator"
	"trustcast/internal/api"
	"trustcast/internal/database"
	"trustcast/internal/inference"
	"trustcast/internal/ingest"
	"trustcast/internal/logs"
	"trustcast/internal/models"
	"trustcast/internal/mqtt"
	"trustcast/internal/services"
	"trustcast/pkg/config"
	"trustcast/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := logger.Init(cfg.Logging); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize logger")
	}

	logger.Info().Msg("starting TrustCast pipeline service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Classification and aggregation ===
	classifier, err := aggregator.NewClassifier(models.Thresholds{
		CriticalBound: cfg.CriticalBound,
		WarningBound:  cfg.WarningBound,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid classification bounds")
	}

	policy, err := aggregator.ParseScorePolicy(cfg.MissingScorePolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid missing score policy")
	}

	agg := aggregator.NewAggregator(classifier, cfg.TrustScoreField, cfg.DeviceIDField, policy)

	// === Services ===
	pipeline := services.NewPipelineService(
		ingest.NewIngestor(cfg.MaxUploadBytes),
		agg,
		inference.NewClient(cfg.PredictURL, cfg.PredictTimeout),
		logger.WithComponent("pipeline"),
	)

	auditConfig := services.DefaultAuditServiceConfig()
	auditConfig.PageSize = cfg.LogPageSize
	audit := services.NewAuditService(auditConfig, logger.WithComponent("audit"))
	pipeline.SetAuditor(audit)

	// === Initialize ClickHouse database ===
	if cfg.StorageEnabled {
		db, err := database.NewClickHouseDB(ctx,
			cfg.ClickHouseAddr,
			cfg.ClickHouseDB,
			cfg.ClickHouseUser,
			cfg.ClickHousePass,
			logger.WithComponent("clickhouse"),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize ClickHouse")
		}
		defer db.Close()

		pipeline.SetStore(db)
		audit.SetStore(db)
		audit.SetSource(logs.NewStoreSource(db, cfg.LogFetchLimit))
	}

	if cfg.LogSourceURL != "" {
		audit.SetSource(logs.NewHTTPSource(cfg.LogSourceURL, cfg.PredictTimeout))
		logger.Info().Str("url", cfg.LogSourceURL).Msg("reading audit log from remote source")
	}

	go audit.Start(ctx)

	// === Initialize MQTT ===
	if cfg.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, logger.WithComponent("mqtt"))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize MQTT client")
		}
		defer mqttClient.Close()

		subscriber := mqtt.NewSubscriber(
			mqttClient.GetNativeClient(),
			mqtt.SubscriberConfig{AuditLogTopic: cfg.MQTTTopicAuditLog},
			audit.AuditChan,
			logger.WithComponent("mqtt-subscriber"),
		)
		if err := subscriber.SubscribeAll(); err != nil {
			logger.Fatal().Err(err).Msg("failed to subscribe to MQTT topics")
		}

		eventChan := make(chan *models.PipelineEvent, 50)
		publisher := mqtt.NewPublisher(
			mqttClient.GetNativeClient(),
			mqtt.PublisherConfig{
				FleetSummaryTopic:    cfg.MQTTTopicFleetSummary,
				InferenceResultTopic: cfg.MQTTTopicInferenceResult,
				NotificationTopic:    cfg.MQTTTopicNotification,
			},
			eventChan,
			logger.WithComponent("mqtt-publisher"),
		)
		go publisher.Start(ctx)

		pipeline.SetEventSink(services.NewChannelSink(eventChan, logger.WithComponent("events")))
	}

	// === HTTP API ===
	server := api.NewServer(pipeline, audit, logger.WithComponent("api"),
		api.WithMaxUploadBytes(cfg.MaxUploadBytes))

	go func() {
		if err := server.Start(cfg.HTTPAddr); err != nil {
			logger.Error().Err(err).Msg("HTTP server stopped")
			cancel()
		}
	}()

	logger.Info().
		Str("http", cfg.HTTPAddr).
		Str("predict_url", cfg.PredictURL).
		Float64("critical_bound", cfg.CriticalBound).
		Float64("warning_bound", cfg.WarningBound).
		Str("missing_score_policy", cfg.MissingScorePolicy).
		Bool("storage", cfg.StorageEnabled).
		Bool("mqtt", cfg.MQTTEnabled).
		Msg("TrustCast is running")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("shutdown signal received, stopping services")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown failed")
	}

	cancel()

	logger.Info().Msg("shutdown complete")
}
