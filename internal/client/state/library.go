package state

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/logging"
	"github.com/samber/lo"
)

// LibraryState is a snapshot of the library mirror.
type LibraryState struct {
	AllCardSets      []models.CardSet
	FilteredCardSets []models.CardSet
	FilterTheme      string
	FilterTags       []string
	AvailableThemes  []string
	AvailableTags    []string
	IsLoading        bool
	Err              error
}

// Library mirrors the card sets held by the persistent store and keeps the
// filtered view in step with the filter predicates. Every refresh entry
// point compares before replacing, so feeding it an unchanged live view is
// free and does not notify subscribers.
//
// FilteredCardSets always equals ApplyFilters(AllCardSets, FilterTheme,
// FilterTags) once a call returns.
type Library struct {
	mu      sync.Mutex
	st      LibraryState
	log     logging.Logger
	changed func()
}

func newLibrary(d Deps, changed func()) *Library {
	return &Library{
		st:      initialLibrary(),
		log:     d.Logger.With("component", "library"),
		changed: changed,
	}
}

func initialLibrary() LibraryState {
	return LibraryState{
		AllCardSets:      []models.CardSet{},
		FilteredCardSets: []models.CardSet{},
		FilterTags:       []string{},
		AvailableThemes:  []string{},
		AvailableTags:    []string{},
		IsLoading:        true,
	}
}

func (l *Library) State() LibraryState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st
}

func (l *Library) update(fn func(st *LibraryState) bool) {
	l.mu.Lock()
	changed := fn(&l.st)
	l.mu.Unlock()
	if changed {
		l.changed()
	}
}

func (st *LibraryState) refilter() {
	st.FilteredCardSets = ApplyFilters(st.AllCardSets, st.FilterTheme, st.FilterTags)
}

// SetAllCardSets installs a new mirror of the store's card sets unless it is
// structurally equal to the current one, in which case only the loading and
// error flags are cleared.
func (l *Library) SetAllCardSets(sets []models.CardSet) {
	l.update(func(st *LibraryState) bool {
		if CardSetsEqual(st.AllCardSets, sets) {
			changed := st.IsLoading || st.Err != nil
			st.IsLoading = false
			st.Err = nil
			return changed
		}
		st.AllCardSets = models.CloneCardSets(sets)
		st.refilter()
		st.IsLoading = false
		st.Err = nil
		return true
	})
}

func (l *Library) SetAvailableThemes(themes []string) {
	l.update(func(st *LibraryState) bool {
		return replaceVocabulary(&st.AvailableThemes, themes)
	})
}

func (l *Library) SetAvailableTags(tags []string) {
	l.update(func(st *LibraryState) bool {
		return replaceVocabulary(&st.AvailableTags, tags)
	})
}

func replaceVocabulary(dst *[]string, in []string) bool {
	next := lo.Uniq(in)
	slices.Sort(next)
	if PrimitiveSetsEqual(*dst, next) {
		return false
	}
	*dst = next
	return true
}

// SetFilterTheme sets the theme predicate; "" clears it.
func (l *Library) SetFilterTheme(theme string) {
	l.update(func(st *LibraryState) bool {
		if st.FilterTheme == theme {
			return false
		}
		st.FilterTheme = theme
		st.refilter()
		return true
	})
}

func (l *Library) AddFilterTag(tag string) {
	l.update(func(st *LibraryState) bool {
		if tag == "" || slices.Contains(st.FilterTags, tag) {
			return false
		}
		tags := append(slices.Clone(st.FilterTags), tag)
		slices.Sort(tags)
		st.FilterTags = tags
		st.refilter()
		return true
	})
}

func (l *Library) RemoveFilterTag(tag string) {
	l.update(func(st *LibraryState) bool {
		if !slices.Contains(st.FilterTags, tag) {
			return false
		}
		st.FilterTags = lo.Without(st.FilterTags, tag)
		st.refilter()
		return true
	})
}

// ResetFilters clears both predicates.
func (l *Library) ResetFilters() {
	l.update(func(st *LibraryState) bool {
		if st.FilterTheme == "" && len(st.FilterTags) == 0 {
			return false
		}
		st.FilterTheme = ""
		st.FilterTags = []string{}
		st.refilter()
		return true
	})
}

// SetError records a failure of the live view. The mirror is left as is.
func (l *Library) SetError(err error) {
	l.update(func(st *LibraryState) bool {
		st.Err = err
		st.IsLoading = false
		return true
	})
}

// Follow feeds views from the store's live view into the mirror until ctx
// is done or views is closed.
func (l *Library) Follow(ctx context.Context, views <-chan models.LibraryView) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			if v.Err != nil {
				l.log.Error(ctx, "library live view failed", "error", v.Err)
				l.SetError(v.Err)
				continue
			}
			l.SetAllCardSets(v.CardSets)
			l.SetAvailableThemes(v.Themes)
			l.SetAvailableTags(v.Tags)
		}
	}
}
