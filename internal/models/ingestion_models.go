package models

import "time"

// CreationRecord is a scraped item joined with its classification, normalized
// and ready for entity resolution and persistence.
type CreationRecord struct {
	UUID        string    `json:"uuid"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	URLToImage  string    `json:"url_to_image"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment"`
	Category    string    `json:"category"`
	SourceName  string    `json:"source_name"`
	IsTrending  bool      `json:"is_trending"`
}

// RunRequest is the queue payload that asks a worker to execute one
// ingestion run.
type RunRequest struct {
	RequestID  string    `json:"request_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// RunSummary is the per-run result reported back to the scheduler and logs.
type RunSummary struct {
	Status         RunStatus `json:"status"`
	Processed      int       `json:"processed"`
	SkippedNoTitle int       `json:"skipped_no_title"`
	SkippedNoMatch int       `json:"skipped_no_match"`
	DuplicateUUIDs int       `json:"duplicate_uuids"`
	Attempts       int       `json:"attempts"`
}
