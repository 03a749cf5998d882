package store

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/spacesedan/newspulse/internal/ingestion"
	"github.com/spacesedan/newspulse/internal/models"
)

// Store owns every relational read and write for sources, categories,
// articles, trending markers and users.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.Source{},
		&models.Category{},
		&models.Article{},
		&models.Trending{},
		&models.User{},
	)
}

// LatestArticleUUID returns the ingestion cursor: the UUID of the most
// recently stored article, or nil on an empty store.
func (s *Store) LatestArticleUUID(ctx context.Context) (*string, error) {
	var article models.Article
	err := s.db.WithContext(ctx).
		Select("uuid").
		Order("id DESC").
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &article.UUID, nil
}

// PersistBatch resolves the batch's categories and sources and writes the
// articles and trending markers, all inside one transaction. Either the whole
// batch becomes visible or none of it does.
func (s *Store) PersistBatch(ctx context.Context, reconciled ingestion.ReconcileResult) (ingestion.BatchResult, error) {
	var result ingestion.BatchResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryIDs, err := s.ResolveCategories(ctx, tx, reconciled.Categories)
		if err != nil {
			return err
		}

		sourceIDs, err := s.ResolveSources(ctx, tx, reconciled.Sources)
		if err != nil {
			return err
		}

		written, duplicates, err := s.WriteBatch(ctx, tx, reconciled.Records, categoryIDs, sourceIDs)
		if err != nil {
			return err
		}

		result = ingestion.BatchResult{Written: len(written), Duplicates: duplicates}
		return nil
	})
	if err != nil {
		slog.Error("[Store] Batch persist failed, transaction rolled back",
			slog.String("error", err.Error()))
		return ingestion.BatchResult{}, err
	}

	slog.Info("[Store] Batch persisted",
		slog.Int("written", result.Written),
		slog.Int("duplicates", result.Duplicates))
	return result, nil
}
