package state

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/logging"
	"github.com/samber/lo"
)

// Phase is the lifecycle position of a study session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// StudyState is a snapshot of the study session. Cards in both decks and
// CurrentCard carry the hint and details cached so far in the session.
type StudyState struct {
	Phase            Phase
	ActiveCardSetIDs []string
	OriginalDeck     []models.Flashcard
	CurrentDeck      []models.Flashcard
	CurrentCardIndex int
	CurrentCard      *models.Flashcard
	IsFrontVisible   bool
	CurrentHint      string
	IsHintLoading    bool
	CurrentDetails   string
	IsDetailsLoading bool
	Err              error
}

// aiField selects which cached AI response an operation works on.
type aiField int

const (
	fieldHint aiField = iota
	fieldDetails
)

func (f aiField) String() string {
	if f == fieldHint {
		return "hint"
	}
	return "details"
}

func (f aiField) get(c models.CardCache) string {
	if f == fieldHint {
		return c.Hint
	}
	return c.Details
}

func (f aiField) set(c *models.CardCache, v string) {
	if f == fieldHint {
		c.Hint = v
	} else {
		c.Details = v
	}
}

// aiSlot is the display state of one AI response kind. seq identifies the
// latest request; completions of older requests never touch the flags.
type aiSlot struct {
	display string
	loading bool
	seq     uint64
}

// Study runs a study session over copies of one or more card sets.
//
// Hints and details obtained during the session are kept in a single map
// keyed by card id, shared by the original and the shuffled deck, so both
// views see the same value. Nothing is written back to the library until
// CachedResponses is saved explicitly.
type Study struct {
	mu sync.Mutex

	phase    Phase
	setIDs   []string
	original []models.Flashcard
	current  []models.Flashcard
	index    int
	front    bool
	slots    [2]aiSlot
	cache    map[string]models.CardCache
	err      error

	tutor   Tutor
	shuffle func([]models.Flashcard)
	log     logging.Logger
	changed func()
}

func newStudy(d Deps, changed func()) *Study {
	s := &Study{
		tutor:   d.Tutor,
		shuffle: d.Shuffle,
		log:     d.Logger.With("component", "study"),
		changed: changed,
	}
	s.clear()
	return s
}

func (s *Study) clear() {
	s.phase = PhaseIdle
	s.setIDs = []string{}
	s.original = []models.Flashcard{}
	s.current = []models.Flashcard{}
	s.index = -1
	s.front = true
	s.cache = make(map[string]models.CardCache)
	s.err = nil
	s.resetSlots()
}

// resetSlots clears both displays and flags and retires in-flight requests.
func (s *Study) resetSlots() {
	for i := range s.slots {
		s.slots[i] = aiSlot{seq: s.slots[i].seq + 1}
	}
}

func (s *Study) withCache(c models.Flashcard) models.Flashcard {
	cc := s.cache[c.ID]
	c.Hint, c.Details = cc.Hint, cc.Details
	return c
}

func (s *Study) materialize(deck []models.Flashcard) []models.Flashcard {
	return lo.Map(deck, func(c models.Flashcard, _ int) models.Flashcard { return s.withCache(c) })
}

func (s *Study) currentCard() *models.Flashcard {
	if s.index < 0 || s.index >= len(s.current) {
		return nil
	}
	return &s.current[s.index]
}

func (s *Study) State() StudyState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := StudyState{
		Phase:            s.phase,
		ActiveCardSetIDs: s.setIDs,
		OriginalDeck:     s.materialize(s.original),
		CurrentDeck:      s.materialize(s.current),
		CurrentCardIndex: s.index,
		IsFrontVisible:   s.front,
		CurrentHint:      s.slots[fieldHint].display,
		IsHintLoading:    s.slots[fieldHint].loading,
		CurrentDetails:   s.slots[fieldDetails].display,
		IsDetailsLoading: s.slots[fieldDetails].loading,
		Err:              s.err,
	}
	if c := s.currentCard(); c != nil {
		cc := s.withCache(*c)
		st.CurrentCard = &cc
	}
	return st
}

func (s *Study) update(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.changed()
	}
}

// enter makes index the active position and seeds the displays from the
// cache. An index outside the deck ends the session.
func (s *Study) enter(index int) {
	s.resetSlots()
	s.err = nil
	s.front = true

	if index < 0 || index >= len(s.current) {
		s.index = -1
		if len(s.current) > 0 {
			s.phase = PhaseCompleted
		} else {
			s.phase = PhaseIdle
		}
		return
	}

	s.index = index
	s.phase = PhaseActive
	cc := s.cache[s.current[index].ID]
	s.slots[fieldHint].display = cc.Hint
	s.slots[fieldDetails].display = cc.Details
}

// Start begins a new session over the cards of sets. Cards are copied, so
// the session never aliases library data, and any hint or details already
// stored on a card seed the session cache.
func (s *Study) Start(sets []models.CardSet) {
	s.update(func() bool {
		s.clear()
		s.setIDs = lo.Map(sets, func(set models.CardSet, _ int) string { return set.ID })
		for _, set := range sets {
			for _, c := range set.Cards {
				s.original = append(s.original, c)
				if cc := c.Cache(); !cc.IsZero() {
					s.cache[c.ID] = cc
				}
			}
		}
		s.current = slices.Clone(s.original)
		s.shuffle(s.current)
		s.enter(0)
		return true
	})
}

// Flip turns the active card over. Turning to the front shows the cached
// hint, turning to the back shows cached details; an empty cache keeps
// whatever is displayed.
func (s *Study) Flip() {
	s.update(func() bool {
		c := s.currentCard()
		if c == nil {
			return false
		}
		s.front = !s.front
		cc := s.cache[c.ID]
		if s.front && cc.Hint != "" {
			s.slots[fieldHint].display = cc.Hint
		}
		if !s.front && cc.Details != "" {
			s.slots[fieldDetails].display = cc.Details
		}
		return true
	})
}

// Next advances to the following card; past the last card the session is
// completed.
func (s *Study) Next() {
	s.update(func() bool {
		if s.phase != PhaseActive {
			return false
		}
		s.enter(s.index + 1)
		return true
	})
}

// Previous steps back one card; it does nothing on the first card.
func (s *Study) Previous() {
	s.update(func() bool {
		if s.phase != PhaseActive || s.index-1 < 0 {
			return false
		}
		s.enter(s.index - 1)
		return true
	})
}

// Shuffle re-permutes the original deck into a new current deck and starts
// over from its first card. Cached responses are kept.
func (s *Study) Shuffle() {
	s.update(func() bool {
		s.current = slices.Clone(s.original)
		s.shuffle(s.current)
		s.enter(0)
		return true
	})
}

// Reset returns to the idle state with fresh, empty collections.
func (s *Study) Reset() {
	s.update(func() bool {
		s.clear()
		return true
	})
}

// FetchHint shows a hint for the active card, from the cache unless force
// is set, otherwise from the hint endpoint.
func (s *Study) FetchHint(ctx context.Context, force bool) error {
	return s.fetch(ctx, fieldHint, force)
}

// FetchDetails is FetchHint for the detailed explanation.
func (s *Study) FetchDetails(ctx context.Context, force bool) error {
	return s.fetch(ctx, fieldDetails, force)
}

func (s *Study) HideHint() {
	s.hide(fieldHint)
}

func (s *Study) HideDetails() {
	s.hide(fieldDetails)
}

func (s *Study) hide(f aiField) {
	s.update(func() bool {
		if s.slots[f].display == "" {
			return false
		}
		s.slots[f].display = ""
		return true
	})
}

func (s *Study) fetch(ctx context.Context, f aiField, force bool) error {
	s.mu.Lock()
	slot := &s.slots[f]
	c := s.currentCard()
	if c == nil || (slot.loading && !force) {
		s.mu.Unlock()
		return nil
	}

	if !force {
		if cached := f.get(s.cache[c.ID]); cached != "" {
			changed := slot.display != cached || s.err != nil
			slot.display = cached
			s.err = nil
			s.mu.Unlock()
			if changed {
				s.changed()
			}
			return nil
		}
		if slot.display != "" {
			s.mu.Unlock()
			return nil
		}
	}

	slot.seq++
	seq := slot.seq
	slot.loading = true
	slot.display = ""
	s.err = nil
	cache := s.cache
	cardID, front, back := c.ID, c.Front, c.Back
	s.mu.Unlock()
	s.changed()

	var v string
	var err error
	if f == fieldHint {
		v, err = s.tutor.GenerateHint(ctx, front, back)
	} else {
		v, err = s.tutor.GenerateDetails(ctx, front, back)
	}

	// Navigation, shuffle, reset and newer requests all advance seq, so only
	// the latest request for the card still on screen may touch the display.
	// Answers are cached either way, in the cache of the session that asked.
	s.mu.Lock()
	latest := slot.seq == seq
	if err == nil {
		cc := cache[cardID]
		f.set(&cc, v)
		cache[cardID] = cc
	}
	if latest {
		slot.loading = false
		if err == nil {
			slot.display = v
		} else {
			s.err = err
		}
	}
	s.mu.Unlock()
	s.changed()

	if err != nil {
		s.log.Warn(ctx, "fetching study "+f.String()+" failed", "card_id", cardID, "error", err)
		return err
	}
	return nil
}

// CachedResponses returns a copy of the hints and details known in this
// session, keyed by card id.
func (s *Study) CachedResponses() map[string]models.CardCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.cache)
}
