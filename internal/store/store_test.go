package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spacesedan/newspulse/internal/ingestion"
	"github.com/spacesedan/newspulse/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	s := New(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func record(uuid, title, category, source string, trending bool) models.CreationRecord {
	return models.CreationRecord{
		UUID:        uuid,
		Title:       title,
		URL:         "https://news.example.com/" + uuid,
		PublishedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Sentiment:   "Positive",
		Category:    category,
		SourceName:  source,
		IsTrending:  trending,
	}
}

func reconciled(records ...models.CreationRecord) ingestion.ReconcileResult {
	result := ingestion.ReconcileResult{
		Records:    records,
		Categories: make(map[string]struct{}),
		Sources:    make(map[string]string),
	}
	for _, r := range records {
		result.Categories[r.Category] = struct{}{}
		result.Sources[r.SourceName] = "https://logos/" + r.SourceName + ".png"
	}
	return result
}

func TestResolveCategoriesIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	names := map[string]struct{}{"Technology": {}, "Politics": {}}

	first, err := s.ResolveCategories(ctx, nil, names)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := s.ResolveCategories(ctx, nil, names)
	require.NoError(t, err)
	require.Equal(t, first, second)

	var count int64
	require.NoError(t, s.db.Model(&models.Category{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestResolveCategoriesExtendsExistingSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.ResolveCategories(ctx, nil, map[string]struct{}{"Technology": {}})
	require.NoError(t, err)

	second, err := s.ResolveCategories(ctx, nil, map[string]struct{}{"Technology": {}, "Sports": {}})
	require.NoError(t, err)
	require.Equal(t, first["Technology"], second["Technology"])
	require.NotZero(t, second["Sports"])

	var count int64
	require.NoError(t, s.db.Model(&models.Category{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestResolveSourcesIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sources := map[string]string{"Reuters": "https://logos/reuters.png"}

	first, err := s.ResolveSources(ctx, nil, sources)
	require.NoError(t, err)

	second, err := s.ResolveSources(ctx, nil, sources)
	require.NoError(t, err)
	require.Equal(t, first, second)

	var count int64
	require.NoError(t, s.db.Model(&models.Source{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var stored models.Source
	require.NoError(t, s.db.First(&stored).Error)
	require.Equal(t, "https://logos/reuters.png", stored.LogoURL)
}

func TestPersistBatchWritesArticlesAndTrending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result, err := s.PersistBatch(ctx, reconciled(
		record("uuid-a", "A", "Technology", "Reuters", true),
		record("uuid-b", "B", "Politics", "BBC", false),
	))
	require.NoError(t, err)
	require.Equal(t, 2, result.Written)
	require.Equal(t, 0, result.Duplicates)

	var articles []models.Article
	require.NoError(t, s.db.Order("id").Find(&articles).Error)
	require.Len(t, articles, 2)
	require.NotZero(t, articles[0].ID)
	require.NotZero(t, articles[0].CategoryID)
	require.NotZero(t, articles[0].SourceID)

	// A trending marker exists iff the record was flagged trending.
	var markers []models.Trending
	require.NoError(t, s.db.Find(&markers).Error)
	require.Len(t, markers, 1)
	require.Equal(t, "uuid-a", markers[0].ArticleUUID)
}

func TestPersistBatchDuplicateUUIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.PersistBatch(ctx, reconciled(
		record("uuid-a", "A", "Technology", "Reuters", true),
	))
	require.NoError(t, err)

	// Re-ingesting the same UUID skips the row instead of failing.
	result, err := s.PersistBatch(ctx, reconciled(
		record("uuid-a", "A", "Technology", "Reuters", true),
		record("uuid-b", "B", "Technology", "Reuters", false),
	))
	require.NoError(t, err)
	require.Equal(t, 1, result.Written)
	require.Equal(t, 1, result.Duplicates)

	var count int64
	require.NoError(t, s.db.Model(&models.Article{}).Count(&count).Error)
	require.EqualValues(t, 2, count)

	// The skipped duplicate gets no second trending marker either.
	var markerCount int64
	require.NoError(t, s.db.Model(&models.Trending{}).Count(&markerCount).Error)
	require.EqualValues(t, 1, markerCount)
}

func TestPersistBatchIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Two fresh records sharing a UUID violate the unique index mid-batch;
	// the whole transaction, including resolved categories and sources,
	// must roll back.
	_, err := s.PersistBatch(ctx, reconciled(
		record("uuid-a", "A", "Technology", "Reuters", true),
		record("uuid-a", "A again", "Politics", "BBC", false),
	))
	require.Error(t, err)

	var articleCount, markerCount, categoryCount, sourceCount int64
	require.NoError(t, s.db.Model(&models.Article{}).Count(&articleCount).Error)
	require.NoError(t, s.db.Model(&models.Trending{}).Count(&markerCount).Error)
	require.NoError(t, s.db.Model(&models.Category{}).Count(&categoryCount).Error)
	require.NoError(t, s.db.Model(&models.Source{}).Count(&sourceCount).Error)
	require.Zero(t, articleCount)
	require.Zero(t, markerCount)
	require.Zero(t, categoryCount)
	require.Zero(t, sourceCount)
}

func TestWriteBatchRejectsUnresolvedNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.WriteBatch(ctx, nil,
		[]models.CreationRecord{record("uuid-a", "A", "Technology", "Reuters", false)},
		map[string]uint{}, map[string]uint{"Reuters": 1})
	require.ErrorContains(t, err, "was not resolved")
}

func TestLatestArticleUUID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cursor, err := s.LatestArticleUUID(ctx)
	require.NoError(t, err)
	require.Nil(t, cursor)

	_, err = s.PersistBatch(ctx, reconciled(
		record("uuid-a", "A", "Technology", "Reuters", false),
	))
	require.NoError(t, err)
	_, err = s.PersistBatch(ctx, reconciled(
		record("uuid-b", "B", "Technology", "Reuters", false),
	))
	require.NoError(t, err)

	cursor, err = s.LatestArticleUUID(ctx)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	require.Equal(t, "uuid-b", *cursor)
}

func TestGetCategoryArticlesPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.PersistBatch(ctx, reconciled(
		record("uuid-a", "A", "Technology", "Reuters", false),
		record("uuid-b", "B", "Politics", "BBC", false),
		record("uuid-c", "C", "Technology", "Reuters", false),
	))
	require.NoError(t, err)

	page, err := s.GetCategoryArticles(ctx, 0, "all", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	// Newest first.
	require.Equal(t, "uuid-c", page[0].UUID)
	require.Equal(t, "Reuters", page[0].Source.Name)

	next, err := s.GetCategoryArticles(ctx, page[1].ID, "", 2)
	require.NoError(t, err)
	require.Len(t, next, 1)
	require.Equal(t, "uuid-a", next[0].UUID)

	tech, err := s.GetCategoryArticles(ctx, 0, "Technology", 10)
	require.NoError(t, err)
	require.Len(t, tech, 2)
}

func TestGetTrendingArticles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.PersistBatch(ctx, reconciled(
		record("uuid-a", "A", "Technology", "Reuters", true),
		record("uuid-b", "B", "Politics", "BBC", false),
		record("uuid-c", "C", "Technology", "Reuters", true),
	))
	require.NoError(t, err)

	trending, err := s.GetTrendingArticles(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	require.Equal(t, "uuid-c", trending[0].UUID)

	require.NoError(t, s.RemoveTrending(ctx, "uuid-c"))
	trending, err = s.GetTrendingArticles(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	require.Equal(t, "uuid-a", trending[0].UUID)
}
