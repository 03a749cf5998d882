package consumers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/newspulse/internal/clients/kafka_client"
	"github.com/spacesedan/newspulse/internal/ingestion"
	"github.com/spacesedan/newspulse/internal/models"
	"github.com/spacesedan/newspulse/internal/utils"
)

// StartIngestionConsumer reads run requests off the queue and dispatches each
// to a bounded worker pool. The message offset is committed only after its
// run reaches a terminal state, so a crashed worker re-delivers the run.
func StartIngestionConsumer(ctx context.Context, consumer *kafka.Consumer, orch *ingestion.Orchestrator, health ...*atomic.Bool) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(ctx, consumer)

	slots := make(chan struct{}, kafka_client.WORKER_POOL_SIZE)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[IngestionConsumer] Consumer shutting down...")
			return
		default:
			msg, err := iterator.Next()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				slog.Error("[IngestionConsumer] Failed to read message",
					slog.String("error", err.Error()))
				continue
			}

			var req models.RunRequest
			if err := utils.DeserializeFromJSON(msg.Value, &req); err != nil {
				// Malformed request: nothing to run, move past it.
				if err := committer.Commit(msg); err != nil {
					slog.Error("[IngestionConsumer] Failed to commit malformed message",
						slog.String("error", err.Error()))
				}
				continue
			}

			for _, h := range health {
				if !h.Load() {
					slog.Warn("[IngestionConsumer] Starting run while a dependency is unhealthy",
						slog.String("request_id", req.RequestID))
					break
				}
			}

			slots <- struct{}{}
			wg.Add(1)
			go func(msg *kafka.Message, req models.RunRequest) {
				defer wg.Done()
				defer func() { <-slots }()

				runIngestion(ctx, orch, req)

				if err := committer.Commit(msg); err != nil {
					slog.Error("[IngestionConsumer] Failed to commit offset after run",
						slog.String("request_id", req.RequestID),
						slog.String("error", err.Error()))
				}
			}(msg, req)
		}
	}
}

func runIngestion(ctx context.Context, orch *ingestion.Orchestrator, req models.RunRequest) {
	slog.Info("[IngestionConsumer] Starting ingestion run",
		slog.String("request_id", req.RequestID))

	summary, err := orch.Run(ctx)
	if err != nil {
		if errors.Is(err, ingestion.ErrRunOverlap) {
			slog.Warn("[IngestionConsumer] Run rejected, another run is in flight",
				slog.String("request_id", req.RequestID))
			return
		}
		slog.Error("[IngestionConsumer] Ingestion run failed",
			slog.String("request_id", req.RequestID),
			slog.Int("attempts", summary.Attempts),
			slog.String("error", err.Error()))
		return
	}

	slog.Info("[IngestionConsumer] Ingestion run finished",
		slog.String("request_id", req.RequestID),
		slog.String("status", string(summary.Status)),
		slog.Int("processed", summary.Processed))
}
