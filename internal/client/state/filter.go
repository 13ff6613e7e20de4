package state

import (
	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/samber/lo"
)

// ApplyFilters keeps the sets whose theme equals theme (when theme is set)
// and that share at least one tag with tags (when tags is non-empty).
// Input order is preserved and the result is always a new slice.
func ApplyFilters(all []models.CardSet, theme string, tags []string) []models.CardSet {
	out := lo.Filter(all, func(s models.CardSet, _ int) bool {
		if theme != "" && s.Theme != theme {
			return false
		}
		return len(tags) == 0 || lo.Some(s.Tags, tags)
	})
	if out == nil {
		out = []models.CardSet{}
	}
	return out
}
