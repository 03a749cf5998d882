package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spacesedan/newspulse/internal/models"
)

type RunState string

const (
	StateIdle           RunState = "idle"
	StateFetching       RunState = "fetching"
	StateReconciling    RunState = "reconciling"
	StatePersisting     RunState = "persisting"
	StateSucceeded      RunState = "succeeded"
	StateRetryScheduled RunState = "retry_scheduled"
	StateFailed         RunState = "failed"
)

const (
	MAX_RETRIES              = 3
	DEFAULT_FETCH_LIMIT      = 25
	SERVICE_ERROR_BACKOFF    = 30 * time.Second
	UNEXPECTED_ERROR_BACKOFF = 60 * time.Second
)

// ScraperAPI fetches raw items newer than the cursor from the scraper service.
type ScraperAPI interface {
	FetchScrapedItems(ctx context.Context, cursor *string, limit int) ([]models.RawItem, error)
}

// InferenceAPI classifies a batch of texts with the ML inference service.
type InferenceAPI interface {
	Classify(ctx context.Context, texts []string) ([]models.Classification, error)
}

// BatchResult reports what one persisted batch actually wrote.
type BatchResult struct {
	Written    int
	Duplicates int
}

// Persister is the storage surface the orchestrator depends on: the ingestion
// cursor and the transactional batch write.
type Persister interface {
	LatestArticleUUID(ctx context.Context) (*string, error)
	PersistBatch(ctx context.Context, res ReconcileResult) (BatchResult, error)
}

// RunLocker serializes ingestion runs. Acquire returns false when another run
// already holds the lock.
type RunLocker interface {
	AcquireRunLock(ctx context.Context, token string) (bool, error)
	ReleaseRunLock(ctx context.Context, token string) error
}

// Deps wires an Orchestrator. Zero values get defaults; tests override the
// backoff bases and Sleep to run instantly.
type Deps struct {
	Scraper   ScraperAPI
	Inference InferenceAPI
	Store     Persister
	Locker    RunLocker

	FetchLimit        int
	ServiceBackoff    time.Duration
	UnexpectedBackoff time.Duration
	Sleep             func(time.Duration)
}

type Orchestrator struct {
	scraper   ScraperAPI
	inference InferenceAPI
	store     Persister
	locker    RunLocker

	fetchLimit        int
	serviceBackoff    time.Duration
	unexpectedBackoff time.Duration
	sleep             func(time.Duration)
}

func NewOrchestrator(deps Deps) *Orchestrator {
	o := &Orchestrator{
		scraper:           deps.Scraper,
		inference:         deps.Inference,
		store:             deps.Store,
		locker:            deps.Locker,
		fetchLimit:        deps.FetchLimit,
		serviceBackoff:    deps.ServiceBackoff,
		unexpectedBackoff: deps.UnexpectedBackoff,
		sleep:             deps.Sleep,
	}
	if o.fetchLimit <= 0 {
		o.fetchLimit = DEFAULT_FETCH_LIMIT
	}
	if o.serviceBackoff <= 0 {
		o.serviceBackoff = SERVICE_ERROR_BACKOFF
	}
	if o.unexpectedBackoff <= 0 {
		o.unexpectedBackoff = UNEXPECTED_ERROR_BACKOFF
	}
	if o.sleep == nil {
		o.sleep = time.Sleep
	}
	return o
}

// transition advances the run's state machine, logging the edge.
func transition(state *RunState, to RunState) {
	slog.Debug("[Orchestrator] State transition",
		slog.String("from", string(*state)),
		slog.String("to", string(to)))
	*state = to
}

// Run executes one ingestion run end to end: cursor read, scrape, classify,
// reconcile, resolve entities, persist. Failures are retried with a backoff
// scaled by the attempt number until the retry ceiling, after which the
// terminal error surfaces to the caller.
func (o *Orchestrator) Run(ctx context.Context) (models.RunSummary, error) {
	state := StateIdle

	if o.locker != nil {
		token := uuid.NewString()
		held, err := o.locker.AcquireRunLock(ctx, token)
		if err != nil {
			transition(&state, StateFailed)
			return models.RunSummary{Status: models.RunStatusFailed},
				fmt.Errorf("[Orchestrator] failed to acquire run lock: %w", err)
		}
		if !held {
			slog.Warn("[Orchestrator] Another run holds the lock, rejecting")
			return models.RunSummary{Status: models.RunStatusFailed}, ErrRunOverlap
		}
		defer func() {
			if err := o.locker.ReleaseRunLock(ctx, token); err != nil {
				slog.Warn("[Orchestrator] Failed to release run lock",
					slog.String("error", err.Error()))
			}
		}()
	}

	var lastErr error
	for attempt := 1; attempt <= MAX_RETRIES+1; attempt++ {
		summary, err := o.runOnce(ctx, &state)
		if err == nil {
			summary.Attempts = attempt
			transition(&state, StateSucceeded)
			slog.Info("[Orchestrator] Run succeeded",
				slog.Int("processed", summary.Processed),
				slog.Int("skipped_no_title", summary.SkippedNoTitle),
				slog.Int("skipped_no_match", summary.SkippedNoMatch),
				slog.Int("duplicate_uuids", summary.DuplicateUUIDs),
				slog.Int("attempts", attempt))
			return summary, nil
		}

		lastErr = err
		kind := ClassifyError(err)
		if attempt > MAX_RETRIES {
			break
		}

		transition(&state, StateRetryScheduled)
		backoff := o.backoffFor(kind, attempt)
		slog.Warn("[Orchestrator] Run attempt failed, scheduling retry",
			slog.Int("attempt", attempt),
			slog.String("kind", kind.String()),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))
		o.sleep(backoff)
	}

	transition(&state, StateFailed)
	slog.Error("[Orchestrator] Run failed after exhausting retries",
		slog.Int("attempts", MAX_RETRIES+1),
		slog.String("error", lastErr.Error()))
	return models.RunSummary{Status: models.RunStatusFailed, Attempts: MAX_RETRIES + 1},
		&RetryExhaustedError{Attempts: MAX_RETRIES + 1, Last: lastErr}
}

// backoffFor scales the backoff base for the error kind by the attempt
// number: service errors wait 30s*n, everything else 60s*n.
func (o *Orchestrator) backoffFor(kind ErrorKind, attempt int) time.Duration {
	base := o.unexpectedBackoff
	if kind == ErrorKindService {
		base = o.serviceBackoff
	}
	return base * time.Duration(attempt)
}

func (o *Orchestrator) runOnce(ctx context.Context, state *RunState) (models.RunSummary, error) {
	transition(state, StateFetching)

	cursor, err := o.store.LatestArticleUUID(ctx)
	if err != nil {
		return models.RunSummary{}, &StageError{Kind: ErrorKindUnexpected, Stage: "cursor", Err: err}
	}
	if cursor != nil {
		slog.Info("[Orchestrator] Starting run", slog.String("cursor", *cursor))
	} else {
		slog.Info("[Orchestrator] Starting run with empty store, no cursor")
	}

	items, err := o.scraper.FetchScrapedItems(ctx, cursor, o.fetchLimit)
	if err != nil {
		return models.RunSummary{}, err
	}
	if len(items) == 0 {
		slog.Info("[Orchestrator] No new items to process")
		return models.RunSummary{Status: models.RunStatusSuccess, Processed: 0}, nil
	}

	titles := make([]string, 0, len(items))
	for _, item := range items {
		if item.Title != "" {
			titles = append(titles, item.Title)
		}
	}

	classifications, err := o.inference.Classify(ctx, titles)
	if err != nil {
		return models.RunSummary{}, err
	}

	transition(state, StateReconciling)
	reconciled := Reconcile(items, classifications)
	slog.Info("[Orchestrator] Reconciled batch",
		slog.Int("records", len(reconciled.Records)),
		slog.Int("skipped_no_title", reconciled.SkippedNoTitle),
		slog.Int("skipped_no_match", reconciled.SkippedNoMatch))

	transition(state, StatePersisting)
	batch, err := o.store.PersistBatch(ctx, reconciled)
	if err != nil {
		return models.RunSummary{}, err
	}

	return models.RunSummary{
		Status:         models.RunStatusSuccess,
		Processed:      batch.Written,
		SkippedNoTitle: reconciled.SkippedNoTitle,
		SkippedNoMatch: reconciled.SkippedNoMatch,
		DuplicateUUIDs: batch.Duplicates,
	}, nil
}
