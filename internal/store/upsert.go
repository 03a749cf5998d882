package store

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spacesedan/newspulse/internal/models"
)

// ResolveCategories maps category names to stable ids, inserting rows for
// names that do not exist yet. Category names are globally unique; the
// insert ignores conflicts so two overlapping batches can race safely, and
// the ids of rows another batch won are picked up by the follow-up read.
func (s *Store) ResolveCategories(ctx context.Context, tx *gorm.DB, names map[string]struct{}) (map[string]uint, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	resolved := make(map[string]uint, len(names))
	if len(names) == 0 {
		return resolved, nil
	}

	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	var existing []models.Category
	if err := transaction.WithContext(ctx).
		Where("name IN ?", keys).
		Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("category lookup failed: %w", err)
	}
	for _, category := range existing {
		resolved[category.Name] = category.ID
	}

	var missing []models.Category
	for _, name := range keys {
		if _, ok := resolved[name]; !ok {
			missing = append(missing, models.Category{Name: name})
		}
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&missing).Error; err != nil {
		return nil, fmt.Errorf("category insert failed: %w", err)
	}

	// Re-read the inserted names: a conflicting concurrent insert leaves
	// our in-memory rows without ids.
	missingNames := make([]string, 0, len(missing))
	for _, category := range missing {
		missingNames = append(missingNames, category.Name)
	}
	var inserted []models.Category
	if err := transaction.WithContext(ctx).
		Where("name IN ?", missingNames).
		Find(&inserted).Error; err != nil {
		return nil, fmt.Errorf("category re-read failed: %w", err)
	}
	for _, category := range inserted {
		resolved[category.Name] = category.ID
	}

	return resolved, nil
}

// ResolveSources maps source names to stable ids, creating missing sources
// with their logo URL. Source names are de-duplicated per batch only, so a
// plain select-then-insert is sufficient.
func (s *Store) ResolveSources(ctx context.Context, tx *gorm.DB, nameToLogo map[string]string) (map[string]uint, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	resolved := make(map[string]uint, len(nameToLogo))
	if len(nameToLogo) == 0 {
		return resolved, nil
	}

	keys := make([]string, 0, len(nameToLogo))
	for name := range nameToLogo {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	var existing []models.Source
	if err := transaction.WithContext(ctx).
		Where("name IN ?", keys).
		Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("source lookup failed: %w", err)
	}
	for _, source := range existing {
		if _, ok := resolved[source.Name]; !ok {
			resolved[source.Name] = source.ID
		}
	}

	var missing []models.Source
	for _, name := range keys {
		if _, ok := resolved[name]; !ok {
			missing = append(missing, models.Source{Name: name, LogoURL: nameToLogo[name]})
		}
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	if err := transaction.WithContext(ctx).Create(&missing).Error; err != nil {
		return nil, fmt.Errorf("source insert failed: %w", err)
	}
	for _, source := range missing {
		resolved[source.Name] = source.ID
	}

	return resolved, nil
}
