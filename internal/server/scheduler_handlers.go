package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spacesedan/newspulse/internal/models"
)

// TriggerIngestion enqueues one ingestion run. Calling it twice enqueues two
// runs; the pipeline's run lock sorts out overlap, not this endpoint.
func (s *Server) TriggerIngestion(c *gin.Context) {
	req := models.RunRequest{
		RequestID:  uuid.NewString(),
		EnqueuedAt: time.Now().UTC(),
	}

	if err := s.enqueue(c.Request.Context(), req); err != nil {
		slog.Error("[Server] Failed to enqueue ingestion run",
			slog.String("request_id", req.RequestID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Ingestion queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "queued",
		"request_id": req.RequestID,
	})
}
