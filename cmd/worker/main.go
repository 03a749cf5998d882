package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/newspulse/config"
	"github.com/spacesedan/newspulse/internal/clients"
	"github.com/spacesedan/newspulse/internal/clients/kafka_client"
	"github.com/spacesedan/newspulse/internal/consumers"
	"github.com/spacesedan/newspulse/internal/ingestion"
	"github.com/spacesedan/newspulse/internal/logging"
	"github.com/spacesedan/newspulse/internal/monitoring"
	"github.com/spacesedan/newspulse/internal/store"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := clients.GetPostgresDB()
	if err != nil {
		slog.Error("[Main] Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		slog.Error("[Main] Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	clients.InitValkey()
	defer clients.CloseValkey()

	cfg := kafka_client.GetKafkaConfig()
	var consumer *kafka.Consumer
	for {
		c, err := kafka_client.NewConsumer(cfg)
		if err == nil {
			consumer = c
			break
		}

		slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
		time.Sleep(5 * time.Second)
	}
	defer consumer.Close()

	scraperHealthy := &atomic.Bool{}
	inferenceHealthy := &atomic.Bool{}
	scraperHealthy.Store(true)
	inferenceHealthy.Store(true)

	go monitoring.MonitorScraperHealth(ctx, scraperHealthy)
	go monitoring.MonitorInferenceHealth(ctx, inferenceHealthy)

	orch := ingestion.NewOrchestrator(ingestion.Deps{
		Scraper:   clients.GetScraperClient(),
		Inference: clients.GetInferenceClient(),
		Store:     st,
		Locker:    clients.GetValkeyClient(),
	})

	go func() {
		stopChan := make(chan os.Signal, 1)
		signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
		<-stopChan
		slog.Info("[Main] Shutting down worker gracefully...")
		cancel()
	}()

	consumers.StartIngestionConsumer(ctx, consumer, orch, scraperHealthy, inferenceHealthy)
}
