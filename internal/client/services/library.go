// Package services contains application services for the FlashGenius client.
// This file defines the library service: card-set persistence on top of the
// SQLite repositories, the live library view and the study write-back.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/client/repositories/cardsets"
	"github.com/dmitrijs2005/flashgenius/internal/client/repositories/tags"
	"github.com/dmitrijs2005/flashgenius/internal/client/state"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/dbx"
	"github.com/dmitrijs2005/flashgenius/internal/logging"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// dashboardSize is how many recent sets the dashboard lists.
const dashboardSize = 5

// LibraryService defines card-set operations for the CLI and the store.
//
// Contract:
//   - AddCardSet: assign an id and timestamps, persist, register the tags.
//   - UpdateCardSet: merge a patch; returns 0 when the id is unknown.
//   - DeleteCardSet: remove a set; common.ErrNotFound when absent.
//   - Tags no set carries any more are dropped from the registry.
//   - Subscribe: latest-value stream of the whole library, closed with ctx.
//   - LoadForStudy: fetch sets by id, reporting the ids that are missing.
//   - ApplyStudyCache: write hints and details gathered in a study session
//     back onto the stored cards.
//
// All methods must honor context cancellation/timeouts.
type LibraryService interface {
	AddCardSet(ctx context.Context, set models.CardSet) (string, error)
	GetCardSetByID(ctx context.Context, id string) (models.CardSet, error)
	UpdateCardSet(ctx context.Context, id string, p models.CardSetPatch) (int, error)
	DeleteCardSet(ctx context.Context, id string) error
	ListCardSets(ctx context.Context, f models.CardSetFilter) ([]models.CardSet, error)
	KnownTags(ctx context.Context) ([]models.Tag, error)
	Snapshot(ctx context.Context) (models.LibraryView, error)
	Subscribe(ctx context.Context) <-chan models.LibraryView
	RecentCardSets(ctx context.Context, n int) ([]models.CardSet, error)
	SuggestedCardSet(ctx context.Context) (models.CardSet, bool, error)
	LoadForStudy(ctx context.Context, ids []string) ([]models.CardSet, []string, error)
	ApplyStudyCache(ctx context.Context, setIDs []string, cache map[string]models.CardCache) (int, error)
}

// LibraryOption customizes a library service.
type LibraryOption func(*libraryService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LibraryOption {
	return func(s *libraryService) { s.now = now }
}

// WithIDs replaces the uuid generator used for new sets and cards.
func WithIDs(newID func() string) LibraryOption {
	return func(s *libraryService) { s.newID = newID }
}

// libraryService is the concrete LibraryService backed by a local SQL
// database.
type libraryService struct {
	db    *sql.DB
	log   logging.Logger
	now   func() time.Time
	newID func() string

	// writes serializes mutations so timestamps stay strictly increasing.
	writes sync.Mutex
	last   time.Time

	subMu   sync.Mutex
	nextSub int
	subs    map[int]chan models.LibraryView
}

// NewLibraryService constructs a LibraryService bound to the given DB.
func NewLibraryService(db *sql.DB, log logging.Logger, opts ...LibraryOption) LibraryService {
	if log == nil {
		log = logging.Discard()
	}
	s := &libraryService{
		db:    db,
		log:   log.With("component", "library_service"),
		now:   time.Now,
		newID: uuid.NewString,
		subs:  make(map[int]chan models.LibraryView),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *libraryService) getCardSetRepo() cardsets.Repository {
	return cardsets.NewSQLiteRepository(s.db)
}

// stamp returns the current time at millisecond precision, later than both
// prev and any timestamp this service handed out before.
func (s *libraryService) stamp(prev time.Time) time.Time {
	t := time.UnixMilli(s.now().UnixMilli())
	floor := prev
	if s.last.After(floor) {
		floor = s.last
	}
	if !floor.IsZero() && !t.After(floor) {
		t = floor.Add(time.Millisecond)
	}
	s.last = t
	return t
}

func cleanTags(in []string) []string {
	return lo.Uniq(lo.FilterMap(in, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	}))
}

func registerTags(ctx context.Context, tx dbx.DBTX, names []string) error {
	repo := tags.NewSQLiteRepository(tx)
	for _, name := range names {
		if _, err := repo.Add(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// AddCardSet stores set as a new card set. Cards without an id get one.
func (s *libraryService) AddCardSet(ctx context.Context, set models.CardSet) (string, error) {
	set = set.Clone()
	set.Name = strings.TrimSpace(set.Name)
	if set.Name == "" {
		return "", fmt.Errorf("%w: card set name is required", common.ErrValidation)
	}
	set.ID = s.newID()
	set.Tags = cleanTags(set.Tags)
	for i := range set.Cards {
		if set.Cards[i].ID == "" {
			set.Cards[i].ID = s.newID()
		}
	}

	s.writes.Lock()
	set.CreatedAt = s.stamp(time.Time{})
	set.UpdatedAt = set.CreatedAt
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := cardsets.NewSQLiteRepository(tx).Insert(ctx, set); err != nil {
			return err
		}
		return registerTags(ctx, tx, set.Tags)
	})
	s.writes.Unlock()
	if err != nil {
		return "", fmt.Errorf("add card set: %w", err)
	}

	s.log.Info(ctx, "card set added", "id", set.ID, "cards", len(set.Cards))
	s.publish(ctx)
	return set.ID, nil
}

func (s *libraryService) GetCardSetByID(ctx context.Context, id string) (models.CardSet, error) {
	return s.getCardSetRepo().GetByID(ctx, id)
}

// UpdateCardSet merges p into the stored set and bumps UpdatedAt. It
// returns 1 when the set was updated and 0 when no set has that id.
func (s *libraryService) UpdateCardSet(ctx context.Context, id string, p models.CardSetPatch) (int, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return 0, fmt.Errorf("%w: card set name cannot be empty", common.ErrValidation)
	}

	s.writes.Lock()
	n := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (err error) {
		if n, err = s.patch(ctx, tx, id, p); err != nil || n == 0 {
			return err
		}
		if p.Tags != nil {
			return pruneTags(ctx, tx)
		}
		return nil
	})
	s.writes.Unlock()
	if err != nil {
		return 0, fmt.Errorf("update card set[%s]: %w", id, err)
	}

	if n > 0 {
		s.log.Info(ctx, "card set updated", "id", id)
		s.publish(ctx)
	}
	return n, nil
}

// patch merges p into the set stored under id within tx. It returns 0 when
// there is no such set.
func (s *libraryService) patch(ctx context.Context, tx dbx.DBTX, id string, p models.CardSetPatch) (int, error) {
	repo := cardsets.NewSQLiteRepository(tx)
	cur, err := repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	next := cur.Apply(p)
	next.Name = strings.TrimSpace(next.Name)
	next.Tags = cleanTags(next.Tags)
	for i := range next.Cards {
		if next.Cards[i].ID == "" {
			next.Cards[i].ID = s.newID()
		}
	}
	next.UpdatedAt = s.stamp(cur.UpdatedAt)

	n, err := repo.Update(ctx, next)
	if err != nil {
		return 0, err
	}
	return n, registerTags(ctx, tx, next.Tags)
}

// pruneTags removes registered tags that no card set carries any more.
func pruneTags(ctx context.Context, tx dbx.DBTX) error {
	used, err := cardsets.NewSQLiteRepository(tx).Tags(ctx)
	if err != nil {
		return err
	}
	repo := tags.NewSQLiteRepository(tx)
	known, err := repo.List(ctx)
	if err != nil {
		return err
	}
	for _, t := range known {
		if slices.Contains(used, t.Name) {
			continue
		}
		if err := repo.Delete(ctx, t.Name); err != nil {
			return err
		}
	}
	return nil
}

func (s *libraryService) DeleteCardSet(ctx context.Context, id string) error {
	s.writes.Lock()
	n := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (err error) {
		if n, err = cardsets.NewSQLiteRepository(tx).Delete(ctx, id); err != nil || n == 0 {
			return err
		}
		return pruneTags(ctx, tx)
	})
	s.writes.Unlock()
	if err != nil {
		return fmt.Errorf("delete card set[%s]: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("card set[%s]: %w", id, common.ErrNotFound)
	}

	s.log.Info(ctx, "card set deleted", "id", id)
	s.publish(ctx)
	return nil
}

// ListCardSets returns the sets matching f, oldest first.
func (s *libraryService) ListCardSets(ctx context.Context, f models.CardSetFilter) ([]models.CardSet, error) {
	all, err := s.getCardSetRepo().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return state.ApplyFilters(all, f.Theme, f.Tags), nil
}

// KnownTags lists the tag registry by name.
func (s *libraryService) KnownTags(ctx context.Context) ([]models.Tag, error) {
	return tags.NewSQLiteRepository(s.db).List(ctx)
}

// Snapshot reads the whole library together with its theme and tag
// vocabularies.
func (s *libraryService) Snapshot(ctx context.Context) (models.LibraryView, error) {
	repo := s.getCardSetRepo()

	all, err := repo.GetAll(ctx)
	if err != nil {
		return models.LibraryView{}, err
	}
	themes, err := repo.Themes(ctx)
	if err != nil {
		return models.LibraryView{}, err
	}
	tagNames, err := repo.Tags(ctx)
	if err != nil {
		return models.LibraryView{}, err
	}
	return models.LibraryView{CardSets: all, Themes: themes, Tags: tagNames}, nil
}

// Subscribe returns a channel that receives the current library view and
// then a fresh view after every mutation. Slow readers only ever see the
// latest view. The channel is closed when ctx is done.
func (s *libraryService) Subscribe(ctx context.Context) <-chan models.LibraryView {
	ch := make(chan models.LibraryView, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	offer(ch, s.view(ctx))
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subMu.Unlock()
	}()
	return ch
}

func (s *libraryService) view(ctx context.Context) models.LibraryView {
	v, err := s.Snapshot(ctx)
	if err != nil {
		s.log.Error(ctx, "reading library view failed", "error", err)
		return models.LibraryView{Err: err}
	}
	return v
}

func (s *libraryService) publish(ctx context.Context) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	v := s.view(ctx)
	for _, ch := range s.subs {
		offer(ch, v)
	}
}

// offer replaces whatever is buffered in ch with v. Only publishers holding
// subMu send, so the loop ends after at most one drain.
func offer(ch chan models.LibraryView, v models.LibraryView) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// RecentCardSets returns up to n sets, newest first.
func (s *libraryService) RecentCardSets(ctx context.Context, n int) ([]models.CardSet, error) {
	if n <= 0 {
		n = dashboardSize
	}
	all, err := s.getCardSetRepo().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(all)
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// SuggestedCardSet picks the set with cards that was updated longest ago.
// The bool is false when the library has no set with cards.
func (s *libraryService) SuggestedCardSet(ctx context.Context) (models.CardSet, bool, error) {
	all, err := s.getCardSetRepo().GetAll(ctx)
	if err != nil {
		return models.CardSet{}, false, err
	}
	withCards := lo.Filter(all, func(set models.CardSet, _ int) bool { return len(set.Cards) > 0 })
	if len(withCards) == 0 {
		return models.CardSet{}, false, nil
	}
	return lo.MinBy(withCards, func(a, b models.CardSet) bool {
		return a.UpdatedAt.Before(b.UpdatedAt)
	}), true, nil
}

// LoadForStudy returns the sets for ids in the given order together with
// the ids that no longer exist. It fails with common.ErrNotFound when none
// of the ids exist.
func (s *libraryService) LoadForStudy(ctx context.Context, ids []string) ([]models.CardSet, []string, error) {
	repo := s.getCardSetRepo()
	found := []models.CardSet{}
	missing := []string{}

	for _, id := range lo.Uniq(ids) {
		set, err := repo.GetByID(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		found = append(found, set)
	}

	if len(missing) > 0 {
		s.log.Warn(ctx, "card sets missing for study", "ids", missing)
	}
	if len(found) == 0 {
		return nil, missing, fmt.Errorf("card sets for study: %w", common.ErrNotFound)
	}
	return found, missing, nil
}

// ApplyStudyCache copies the non-empty hints and details in cache onto the
// matching cards of the given sets. Sets whose cards are unchanged are left
// alone. It returns the number of sets updated.
func (s *libraryService) ApplyStudyCache(ctx context.Context, setIDs []string, cache map[string]models.CardCache) (int, error) {
	if len(cache) == 0 {
		return 0, nil
	}

	s.writes.Lock()
	updated := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := cardsets.NewSQLiteRepository(tx)
		for _, id := range lo.Uniq(setIDs) {
			set, err := repo.GetByID(ctx, id)
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !mergeCache(set.Cards, cache) {
				continue
			}
			n, err := s.patch(ctx, tx, id, models.CardSetPatch{Cards: &set.Cards})
			if err != nil {
				return err
			}
			updated += n
		}
		return nil
	})
	s.writes.Unlock()
	if err != nil {
		return 0, fmt.Errorf("apply study cache: %w", err)
	}

	if updated > 0 {
		s.log.Info(ctx, "study responses saved", "sets", updated)
		s.publish(ctx)
	}
	return updated, nil
}

func mergeCache(cards []models.Flashcard, cache map[string]models.CardCache) bool {
	changed := false
	for i, c := range cards {
		cc, ok := cache[c.ID]
		if !ok {
			continue
		}
		if cc.Hint != "" && cc.Hint != c.Hint {
			cards[i].Hint = cc.Hint
			changed = true
		}
		if cc.Details != "" && cc.Details != c.Details {
			cards[i].Details = cc.Details
			changed = true
		}
	}
	return changed
}
