package store

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/spacesedan/newspulse/internal/models"
)

// WriteBatch inserts the batch's articles and trending markers. Records whose
// UUID is already stored are skipped: re-ingesting a known UUID is an
// idempotent no-op, not a failure. A record naming a category or source the
// caller did not resolve is a contract violation and aborts the batch.
func (s *Store) WriteBatch(
	ctx context.Context,
	tx *gorm.DB,
	records []models.CreationRecord,
	categoryIDs map[string]uint,
	sourceIDs map[string]uint,
) ([]models.Article, int, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	if len(records) == 0 {
		return nil, 0, nil
	}

	uuids := make([]string, 0, len(records))
	for _, record := range records {
		uuids = append(uuids, record.UUID)
	}

	var stored []models.Article
	if err := transaction.WithContext(ctx).
		Select("uuid").
		Where("uuid IN ?", uuids).
		Find(&stored).Error; err != nil {
		return nil, 0, fmt.Errorf("duplicate lookup failed: %w", err)
	}
	seen := make(map[string]struct{}, len(stored))
	for _, article := range stored {
		seen[article.UUID] = struct{}{}
	}

	articles := make([]models.Article, 0, len(records))
	var trendingUUIDs []string
	duplicates := 0

	for _, record := range records {
		if _, ok := seen[record.UUID]; ok {
			duplicates++
			slog.Info("[Store] Skipping already stored article",
				slog.String("uuid", record.UUID))
			continue
		}

		categoryID, ok := categoryIDs[record.Category]
		if !ok {
			return nil, 0, fmt.Errorf("category %q was not resolved for article %s", record.Category, record.UUID)
		}
		sourceID, ok := sourceIDs[record.SourceName]
		if !ok {
			return nil, 0, fmt.Errorf("source %q was not resolved for article %s", record.SourceName, record.UUID)
		}

		articles = append(articles, models.Article{
			UUID:        record.UUID,
			Title:       record.Title,
			URL:         record.URL,
			Description: record.Description,
			URLToImage:  record.URLToImage,
			PublishedAt: record.PublishedAt,
			Sentiment:   record.Sentiment,
			CategoryID:  categoryID,
			SourceID:    sourceID,
		})
		if record.IsTrending {
			trendingUUIDs = append(trendingUUIDs, record.UUID)
		}
	}

	if len(articles) > 0 {
		if err := transaction.WithContext(ctx).Create(&articles).Error; err != nil {
			return nil, 0, fmt.Errorf("article insert failed: %w", err)
		}
	}

	if len(trendingUUIDs) > 0 {
		markers := make([]models.Trending, 0, len(trendingUUIDs))
		for _, articleUUID := range trendingUUIDs {
			markers = append(markers, models.Trending{ArticleUUID: articleUUID})
		}
		if err := transaction.WithContext(ctx).Create(&markers).Error; err != nil {
			return nil, 0, fmt.Errorf("trending insert failed: %w", err)
		}
	}

	return articles, duplicates, nil
}
