package cardsets

import (
	"context"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
)

// Repository describes CRUD and query operations for CardSet objects.
type Repository interface {
	// Insert stores a new card set with its cards and tags.
	Insert(ctx context.Context, set models.CardSet) error

	// Update replaces the stored card set with the same id and returns the
	// number of sets changed (0 or 1).
	Update(ctx context.Context, set models.CardSet) (int, error)

	// GetByID returns a card set by id or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (models.CardSet, error)

	// GetAll returns every card set ordered by creation time.
	GetAll(ctx context.Context) ([]models.CardSet, error)

	// Delete removes a card set and returns the number of sets removed.
	Delete(ctx context.Context, id string) (int, error)

	// Themes returns the distinct non-empty themes, sorted.
	Themes(ctx context.Context) ([]string, error)

	// Tags returns the distinct tags used by card sets, sorted.
	Tags(ctx context.Context) ([]string, error)
}
