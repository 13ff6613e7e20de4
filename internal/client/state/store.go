package state

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/logging"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrBusy is returned when an operation is already in progress.
var ErrBusy = errors.New("operation already in progress")

// CardGenerator produces flashcards from resolved input.
type CardGenerator interface {
	GenerateCards(ctx context.Context, req models.GenerateRequest) ([]models.GeneratedCard, error)
}

// Tutor answers study questions about a single card.
type Tutor interface {
	GenerateHint(ctx context.Context, front, back string) (string, error)
	GenerateDetails(ctx context.Context, front, back string) (string, error)
}

// InputResolver turns staged input into a generation payload.
type InputResolver interface {
	Resolve(ctx context.Context, t models.InputType, v models.InputValue) (models.Payload, error)
}

// CardSetSaver persists a new card set and returns its id.
type CardSetSaver interface {
	AddCardSet(ctx context.Context, set models.CardSet) (string, error)
}

// Deps are the collaborators of the store. Zero fields other than Cards,
// Tutor and Resolver are filled with defaults by New.
type Deps struct {
	Cards    CardGenerator
	Tutor    Tutor
	Resolver InputResolver
	Logger   logging.Logger

	NewID   func() string
	Shuffle func([]models.Flashcard)

	DefaultLanguage string
	MaxInputChars   int
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Shuffle == nil {
		d.Shuffle = func(cards []models.Flashcard) { lo.Shuffle(cards) }
	}
	if d.DefaultLanguage == "" {
		d.DefaultLanguage = "English"
	}
	if d.MaxInputChars <= 0 {
		d.MaxInputChars = common.MaxInputChars
	}
	return d
}

// Snapshot is the combined state of all controllers at one point in time.
type Snapshot struct {
	Generate GenerateState
	Library  LibraryState
	Study    StudyState
}

// Store composes the generation, library and study controllers and fans
// their change notifications out to subscribers.
type Store struct {
	Generate *Generator
	Library  *Library
	Study    *Study

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func()
}

func New(d Deps) *Store {
	d = d.withDefaults()
	s := &Store{listeners: make(map[uint64]func())}
	s.Generate = newGenerator(d, s.notify)
	s.Library = newLibrary(d, s.notify)
	s.Study = newStudy(d, s.notify)
	return s
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Generate: s.Generate.State(),
		Library:  s.Library.State(),
		Study:    s.Study.State(),
	}
}

// Select reads one value out of the current snapshot.
func Select[T any](s *Store, sel func(Snapshot) T) T {
	return sel(s.Snapshot())
}

// Subscribe registers fn to be called after every state change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// SubscribeSelect calls fn with the selected value each time it differs,
// under equal, from the last value seen.
func SubscribeSelect[T any](s *Store, sel func(Snapshot) T, equal func(a, b T) bool, fn func(T)) func() {
	var mu sync.Mutex
	last := Select(s, sel)

	return s.Subscribe(func() {
		next := Select(s, sel)
		mu.Lock()
		if equal(last, next) {
			mu.Unlock()
			return
		}
		last = next
		mu.Unlock()
		fn(next)
	})
}
