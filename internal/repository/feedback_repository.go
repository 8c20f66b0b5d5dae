package repository

import (
	"context"
	"strings"

	"github.com/noah-isme/sfp-api/internal/models"
)

// FeedbackRepository is the storage contract served interchangeably by the
// JSON file store and the SurrealDB store. One implementation is chosen at
// startup and injected into the service; both must produce identical
// filter, ordering and pagination semantics.
type FeedbackRepository interface {
	Create(ctx context.Context, record *models.FeedbackRecord) error
	GetByID(ctx context.Context, id string) (*models.FeedbackRecord, error)
	List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackRecord, int, error)
	UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.FeedbackRecord, error)
	Delete(ctx context.Context, id string) error
}

// matchesFilter implements the shared in-memory filter semantics: exact
// status/category match, case-insensitive substring search over text OR
// suggestions.
func matchesFilter(record models.FeedbackRecord, filter models.FeedbackFilter) bool {
	if filter.Status != "" && string(record.Status) != filter.Status {
		return false
	}
	if filter.Category != "" && record.Category != filter.Category {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		inText := strings.Contains(strings.ToLower(record.Text), needle)
		inSuggestions := record.Suggestions != nil &&
			strings.Contains(strings.ToLower(*record.Suggestions), needle)
		if !inText && !inSuggestions {
			return false
		}
	}
	return true
}
