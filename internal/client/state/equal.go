package state

import (
	"cmp"
	"slices"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/samber/lo"
)

// PrimitiveSetsEqual reports whether a and b hold the same elements,
// ignoring order. Inputs are not modified.
func PrimitiveSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := slices.Clone(a), slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}

// cardSetKey is the shallow fingerprint compared by CardSetsEqual. Card
// contents are represented only by their count and the set's UpdatedAt, so
// every write to a set must bump UpdatedAt.
type cardSetKey struct {
	id        string
	name      string
	theme     string
	tags      []string
	updatedAt int64
	cardCount int
}

func keyOf(s models.CardSet, _ int) cardSetKey {
	tags := slices.Clone(s.Tags)
	slices.Sort(tags)

	var updated int64
	if !s.UpdatedAt.IsZero() {
		updated = s.UpdatedAt.UnixMilli()
	}
	return cardSetKey{
		id:        s.ID,
		name:      s.Name,
		theme:     s.Theme,
		tags:      tags,
		updatedAt: updated,
		cardCount: len(s.Cards),
	}
}

// CardSetsEqual compares two card-set collections by id, name, theme,
// sorted tags, UpdatedAt and card count, irrespective of order.
func CardSetsEqual(a, b []models.CardSet) bool {
	if len(a) != len(b) {
		return false
	}
	byID := func(x, y cardSetKey) int { return cmp.Compare(x.id, y.id) }

	ak := lo.Map(a, keyOf)
	bk := lo.Map(b, keyOf)
	slices.SortFunc(ak, byID)
	slices.SortFunc(bk, byID)

	return slices.EqualFunc(ak, bk, func(x, y cardSetKey) bool {
		return x.id == y.id &&
			x.name == y.name &&
			x.theme == y.theme &&
			x.updatedAt == y.updatedAt &&
			x.cardCount == y.cardCount &&
			slices.Equal(x.tags, y.tags)
	})
}
