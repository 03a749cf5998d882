package kafka_client

import "time"

const (
	// Each message on this topic asks a worker to execute one ingestion run.
	KAFKA_TOPIC_INGESTION_REQUESTS = "ingestion-requests"
)

const (
	MAX_RETRIES      = 5
	RETRY_DELAY      = 2 * time.Second
	WORKER_POOL_SIZE = 4
)
