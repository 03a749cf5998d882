package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spacesedan/newspulse/internal/models"
)

type fakeScraper struct {
	items   []models.RawItem
	err     error
	calls   int
	cursors []*string
}

func (f *fakeScraper) FetchScrapedItems(ctx context.Context, cursor *string, limit int) ([]models.RawItem, error) {
	f.calls++
	f.cursors = append(f.cursors, cursor)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeInference struct {
	classifications []models.Classification
	err             error
	gotTexts        []string
}

func (f *fakeInference) Classify(ctx context.Context, texts []string) ([]models.Classification, error) {
	f.gotTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	return f.classifications, nil
}

type fakePersister struct {
	cursor     *string
	persistErr error
	duplicates int
	batches    []ReconcileResult
}

func (f *fakePersister) LatestArticleUUID(ctx context.Context) (*string, error) {
	return f.cursor, nil
}

func (f *fakePersister) PersistBatch(ctx context.Context, res ReconcileResult) (BatchResult, error) {
	if f.persistErr != nil {
		return BatchResult{}, f.persistErr
	}
	f.batches = append(f.batches, res)
	return BatchResult{Written: len(res.Records) - f.duplicates, Duplicates: f.duplicates}, nil
}

type fakeLocker struct {
	denied     bool
	acquireErr error
	acquired   int
	released   int
}

func (f *fakeLocker) AcquireRunLock(ctx context.Context, token string) (bool, error) {
	f.acquired++
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	return !f.denied, nil
}

func (f *fakeLocker) ReleaseRunLock(ctx context.Context, token string) error {
	f.released++
	return nil
}

type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func newTestOrchestrator(scraper ScraperAPI, inference InferenceAPI, store Persister, locker RunLocker) (*Orchestrator, *sleepRecorder) {
	recorder := &sleepRecorder{}
	return NewOrchestrator(Deps{
		Scraper:   scraper,
		Inference: inference,
		Store:     store,
		Locker:    locker,
		Sleep:     recorder.sleep,
	}), recorder
}

func TestRunEmptyIncrement(t *testing.T) {
	scraper := &fakeScraper{items: nil}
	inference := &fakeInference{}
	persister := &fakePersister{}

	orch, _ := newTestOrchestrator(scraper, inference, persister, nil)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, models.RunStatusSuccess, summary.Status)
	require.Equal(t, 0, summary.Processed)
	require.Empty(t, persister.batches)
	require.Nil(t, inference.gotTexts)
}

func TestRunFullSuccess(t *testing.T) {
	cursor := "uuid-prev"
	scraper := &fakeScraper{items: []models.RawItem{
		rawItem("uuid-a", "A", "Reuters", ""),
		rawItem("uuid-b", "B", "BBC", ""),
	}}
	inference := &fakeInference{classifications: []models.Classification{
		classification("A", "Technology", "Positive"),
		classification("B", "Politics", "Negative"),
	}}
	persister := &fakePersister{cursor: &cursor}
	locker := &fakeLocker{}

	orch, recorder := newTestOrchestrator(scraper, inference, persister, locker)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, models.RunStatusSuccess, summary.Status)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 1, summary.Attempts)

	require.Equal(t, 1, scraper.calls)
	require.Equal(t, &cursor, scraper.cursors[0])
	require.Equal(t, []string{"A", "B"}, inference.gotTexts)
	require.Len(t, persister.batches, 1)
	require.Empty(t, recorder.slept)

	require.Equal(t, 1, locker.acquired)
	require.Equal(t, 1, locker.released)
}

func TestRunPartialMatch(t *testing.T) {
	scraper := &fakeScraper{items: []models.RawItem{
		rawItem("uuid-a", "A", "Reuters", ""),
		rawItem("uuid-c", "C", "BBC", ""),
	}}
	inference := &fakeInference{classifications: []models.Classification{
		classification("A", "Technology", "Positive"),
	}}
	persister := &fakePersister{}

	orch, _ := newTestOrchestrator(scraper, inference, persister, nil)
	summary, err := orch.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)
	require.Equal(t, 1, summary.SkippedNoMatch)
	require.Len(t, persister.batches, 1)
	require.Len(t, persister.batches[0].Records, 1)
	require.Equal(t, "uuid-a", persister.batches[0].Records[0].UUID)
}

func TestRunRetryCeilingServiceError(t *testing.T) {
	scraper := &fakeScraper{err: &StageError{
		Kind:   ErrorKindService,
		Stage:  "scraper",
		Status: 503,
		Err:    errors.New("unavailable"),
	}}
	persister := &fakePersister{}

	orch, recorder := newTestOrchestrator(scraper, &fakeInference{}, persister, nil)
	summary, err := orch.Run(context.Background())

	require.Error(t, err)
	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 4, exhausted.Attempts)
	require.Equal(t, models.RunStatusFailed, summary.Status)

	// 4 attempts total means 3 retries with service-error backoff 30s*n.
	require.Equal(t, 4, scraper.calls)
	require.Equal(t, []time.Duration{
		30 * time.Second,
		60 * time.Second,
		90 * time.Second,
	}, recorder.slept)
}

func TestRunBackoffUnexpectedError(t *testing.T) {
	scraper := &fakeScraper{items: []models.RawItem{
		rawItem("uuid-a", "A", "Reuters", ""),
	}}
	inference := &fakeInference{classifications: []models.Classification{
		classification("A", "Technology", "Positive"),
	}}
	persister := &fakePersister{persistErr: errors.New("db blew up")}

	orch, recorder := newTestOrchestrator(scraper, inference, persister, nil)
	_, err := orch.Run(context.Background())

	require.Error(t, err)
	require.Equal(t, []time.Duration{
		60 * time.Second,
		120 * time.Second,
		180 * time.Second,
	}, recorder.slept)
}

func TestRunRejectedWhenLockHeld(t *testing.T) {
	scraper := &fakeScraper{}
	locker := &fakeLocker{denied: true}

	orch, _ := newTestOrchestrator(scraper, &fakeInference{}, &fakePersister{}, locker)
	summary, err := orch.Run(context.Background())

	require.ErrorIs(t, err, ErrRunOverlap)
	require.Equal(t, models.RunStatusFailed, summary.Status)
	require.Equal(t, 0, scraper.calls)
	require.Equal(t, 0, locker.released)
}

func TestRunLockReleasedOnFailure(t *testing.T) {
	scraper := &fakeScraper{err: errors.New("boom")}
	locker := &fakeLocker{}

	orch, _ := newTestOrchestrator(scraper, &fakeInference{}, &fakePersister{}, locker)
	_, err := orch.Run(context.Background())

	require.Error(t, err)
	require.Equal(t, 1, locker.released)
}
