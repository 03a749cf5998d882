package ingestion

import (
	"github.com/spacesedan/newspulse/internal/models"
	"github.com/spacesedan/newspulse/internal/utils"
)

const (
	TITLE_MAX_LEN       = 500
	DESCRIPTION_MAX_LEN = 1000
)

// ReconcileResult carries the normalized batch plus the distinct category and
// source sets to resolve, and counters for items the join dropped.
type ReconcileResult struct {
	Records        []models.CreationRecord
	Categories     map[string]struct{}
	Sources        map[string]string
	SkippedNoTitle int
	SkippedNoMatch int
}

// Reconcile joins scraped items with classification results by exact title
// match. Items with no title or no matching classification are dropped and
// counted; everything else becomes one creation record. Pure function, no I/O.
func Reconcile(items []models.RawItem, classifications []models.Classification) ReconcileResult {
	byTitle := make(map[string]models.Classification, len(classifications))
	for _, c := range classifications {
		byTitle[c.Text] = c
	}

	result := ReconcileResult{
		Records:    make([]models.CreationRecord, 0, len(items)),
		Categories: make(map[string]struct{}),
		Sources:    make(map[string]string),
	}

	for _, item := range items {
		if item.Title == "" {
			result.SkippedNoTitle++
			continue
		}

		classification, ok := byTitle[item.Title]
		if !ok {
			result.SkippedNoMatch++
			continue
		}

		result.Categories[classification.Category] = struct{}{}
		// Last write wins when a source name repeats with differing logos.
		result.Sources[item.Source.Name] = item.Source.LogoURL

		result.Records = append(result.Records, models.CreationRecord{
			UUID:        item.UUID,
			Title:       utils.Truncate(item.Title, TITLE_MAX_LEN),
			URL:         item.URL,
			Description: utils.Truncate(item.Description, DESCRIPTION_MAX_LEN),
			URLToImage:  item.URLToImage,
			PublishedAt: item.PublishedAt,
			Sentiment:   classification.Sentiment,
			Category:    classification.Category,
			SourceName:  item.Source.Name,
			IsTrending:  item.IsTrending,
		})
	}

	return result
}
