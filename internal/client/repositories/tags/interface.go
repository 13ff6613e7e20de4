package tags

import (
	"context"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
)

// Repository keeps the vocabulary of known tag names.
type Repository interface {
	// Add registers name and returns its id. Adding a known name returns the
	// existing id.
	Add(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]models.Tag, error)
	Delete(ctx context.Context, name string) error
}
