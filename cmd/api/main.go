package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/newspulse/config"
	"github.com/spacesedan/newspulse/internal/auth"
	"github.com/spacesedan/newspulse/internal/clients"
	"github.com/spacesedan/newspulse/internal/clients/kafka_client"
	"github.com/spacesedan/newspulse/internal/logging"
	"github.com/spacesedan/newspulse/internal/server"
	"github.com/spacesedan/newspulse/internal/store"
	"github.com/spacesedan/newspulse/internal/utils"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

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

	cfg := kafka_client.GetKafkaConfig()
	for {
		err := kafka_client.InitProducer(cfg)
		if err == nil {
			break
		}

		slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
		time.Sleep(5 * time.Second)
	}
	defer kafka_client.CloseProducer()

	srv := server.NewServer(
		st,
		auth.NewServiceFromEnv(),
		auth.NewServiceTokenVerifierFromEnv(),
		kafka_client.PublishRunRequest,
	)

	httpServer := &http.Server{
		Addr:    ":" + utils.GetEnv("PORT", "8080"),
		Handler: srv.Router(),
	}

	go func() {
		slog.Info("[Main] API server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] Server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	<-stopChan

	slog.Info("[Main] Shutting down API server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Forced shutdown", slog.String("error", err.Error()))
	}
}
