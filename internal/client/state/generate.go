package state

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/flashgenius/internal/client/content"
	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/logging"
	"github.com/samber/lo"
)

// sourcePreviewChars is how much of a text input is kept as a saved set's
// source value.
const sourcePreviewChars = 100

// GenerateState is a snapshot of the generation session.
type GenerateState struct {
	InputType      models.InputType
	InputValue     models.InputValue
	Options        models.GenerationOptions
	PreviewCards   []models.Flashcard
	IsLoading      bool
	Err            error
	WarningMessage string
	CardSetName    string
	CardSetTheme   string
	CardSetTags    []string
}

// Generator stages generation input, calls the generation endpoint and owns
// the editable preview of the resulting cards.
type Generator struct {
	mu sync.Mutex
	st GenerateState
	// seq identifies the latest generation request; Reset retires it too.
	seq    uint64
	cancel context.CancelFunc

	cards    CardGenerator
	resolver InputResolver
	log      logging.Logger
	newID    func() string
	defaults models.GenerationOptions
	maxChars int
	changed  func()
}

func newGenerator(d Deps, changed func()) *Generator {
	g := &Generator{
		cards:    d.Cards,
		resolver: d.Resolver,
		log:      d.Logger.With("component", "generate"),
		newID:    d.NewID,
		defaults: models.GenerationOptions{
			CardType: models.CardTypeTermDefinition,
			Language: d.DefaultLanguage,
		},
		maxChars: d.MaxInputChars,
		changed:  changed,
	}
	g.st = g.initial()
	return g
}

func (g *Generator) initial() GenerateState {
	return GenerateState{
		Options:      g.defaults,
		PreviewCards: []models.Flashcard{},
		CardSetTags:  []string{},
	}
}

// State returns the current snapshot. Slices in the snapshot are never
// modified afterwards.
func (g *Generator) State() GenerateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st
}

// update applies fn under the lock and notifies subscribers when fn reports
// a change.
func (g *Generator) update(fn func(st *GenerateState) bool) {
	g.mu.Lock()
	changed := fn(&g.st)
	g.mu.Unlock()
	if changed {
		g.changed()
	}
}

func (g *Generator) SetInputType(t models.InputType) {
	g.update(func(st *GenerateState) bool {
		st.InputType = t
		return true
	})
}

func (g *Generator) SetInputValue(v models.InputValue) {
	g.update(func(st *GenerateState) bool {
		st.InputValue = v
		return true
	})
}

// SetGenerationOptions merges p into the current options as a new record.
func (g *Generator) SetGenerationOptions(p models.OptionsPatch) {
	g.update(func(st *GenerateState) bool {
		st.Options = st.Options.Merge(p)
		return true
	})
}

func (g *Generator) SetCardSetName(name string) {
	g.update(func(st *GenerateState) bool {
		st.CardSetName = name
		return true
	})
}

func (g *Generator) SetCardSetTheme(theme string) {
	g.update(func(st *GenerateState) bool {
		st.CardSetTheme = theme
		return true
	})
}

// SetCardSetTags replaces the target tags, dropping blanks and duplicates
// while keeping the first-seen order.
func (g *Generator) SetCardSetTags(tags []string) {
	clean := lo.Uniq(lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	}))
	g.update(func(st *GenerateState) bool {
		st.CardSetTags = clean
		return true
	})
}

func (g *Generator) AddCardSetTag(tag string) {
	tag = strings.TrimSpace(tag)
	g.update(func(st *GenerateState) bool {
		if tag == "" || slices.Contains(st.CardSetTags, tag) {
			return false
		}
		st.CardSetTags = append(slices.Clip(st.CardSetTags), tag)
		return true
	})
}

func (g *Generator) RemoveCardSetTag(tag string) {
	g.update(func(st *GenerateState) bool {
		if !slices.Contains(st.CardSetTags, tag) {
			return false
		}
		st.CardSetTags = lo.Without(st.CardSetTags, tag)
		return true
	})
}

// GeneratePreview resolves the staged input, calls the generation endpoint
// and replaces the preview with the returned cards. Failures are recorded in
// the state and also returned. ErrBusy is returned, with no state change,
// while another generation is running. A request retired by Reset never
// touches the state.
func (g *Generator) GeneratePreview(ctx context.Context) error {
	g.mu.Lock()
	if g.st.IsLoading {
		g.mu.Unlock()
		return ErrBusy
	}
	inType, inValue, opts := g.st.InputType, g.st.InputValue, g.st.Options
	if inType == models.InputNone || models.IsEmptyInput(inValue) {
		err := fmt.Errorf("%w: an input type and input value are required", common.ErrValidation)
		g.st.Err = err
		g.mu.Unlock()
		g.changed()
		return err
	}
	g.seq++
	seq := g.seq
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g.cancel = cancel
	g.st.IsLoading = true
	g.st.Err = nil
	g.st.WarningMessage = ""
	g.st.PreviewCards = []models.Flashcard{}
	g.mu.Unlock()
	g.changed()

	cards, err := g.generate(ctx, seq, inType, inValue, opts)

	g.mu.Lock()
	latest := g.seq == seq
	if latest {
		g.cancel = nil
		g.st.IsLoading = false
		if err != nil {
			g.st.Err = err
		} else {
			g.st.PreviewCards = cards
		}
	}
	g.mu.Unlock()

	if !latest {
		g.log.Debug(ctx, "dropping superseded preview", "input_type", inType, "error", err)
		return err
	}
	g.changed()

	if err != nil {
		g.log.Warn(ctx, "preview generation failed", "input_type", inType, "error", err)
		return err
	}
	g.log.Info(ctx, "preview generated", "input_type", inType, "cards", len(cards))
	return nil
}

func (g *Generator) generate(ctx context.Context, seq uint64, inType models.InputType, inValue models.InputValue, opts models.GenerationOptions) ([]models.Flashcard, error) {
	payload, err := g.resolver.Resolve(ctx, inType, inValue)
	if err != nil {
		return nil, err
	}
	if payload.Truncated {
		g.update(func(st *GenerateState) bool {
			if g.seq != seq {
				return false
			}
			st.WarningMessage = content.TruncationNotice(g.maxChars)
			return true
		})
	}

	generated, err := g.cards.GenerateCards(ctx, models.GenerateRequest{
		InputType:         payload.InputType,
		InputValue:        payload.Value,
		GenerationOptions: &opts,
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(generated, func(c models.GeneratedCard, _ int) models.Flashcard {
		return models.Flashcard{ID: g.newID(), Front: c.Front, Back: c.Back}
	}), nil
}

// UpdatePreviewCard merges p into the card at index; out-of-range indexes
// are ignored.
func (g *Generator) UpdatePreviewCard(index int, p models.FlashcardPatch) {
	g.update(func(st *GenerateState) bool {
		if index < 0 || index >= len(st.PreviewCards) {
			return false
		}
		cards := slices.Clone(st.PreviewCards)
		cards[index] = cards[index].Apply(p)
		st.PreviewCards = cards
		return true
	})
}

// AddPreviewCard appends card, or an empty card when nil. A fresh id is
// assigned when the card has none.
func (g *Generator) AddPreviewCard(card *models.Flashcard) {
	var c models.Flashcard
	if card != nil {
		c = *card
	}
	if c.ID == "" {
		c.ID = g.newID()
	}
	g.update(func(st *GenerateState) bool {
		st.PreviewCards = append(slices.Clip(st.PreviewCards), c)
		return true
	})
}

func (g *Generator) DeletePreviewCard(index int) {
	g.update(func(st *GenerateState) bool {
		if index < 0 || index >= len(st.PreviewCards) {
			return false
		}
		st.PreviewCards = slices.Delete(slices.Clone(st.PreviewCards), index, index+1)
		return true
	})
}

// Reset restores every field to its default with fresh collections. A
// running generation is canceled and its result is dropped.
func (g *Generator) Reset() {
	g.update(func(st *GenerateState) bool {
		g.seq++
		if g.cancel != nil {
			g.cancel()
			g.cancel = nil
		}
		*st = g.initial()
		return true
	})
}

// Save persists the preview as a new card set and resets the generator.
// It returns the id of the saved set.
func (g *Generator) Save(ctx context.Context, saver CardSetSaver) (string, error) {
	g.mu.Lock()
	st := g.st
	g.mu.Unlock()

	set, err := draftCardSet(st)
	if err != nil {
		g.fail(err)
		return "", err
	}

	id, err := saver.AddCardSet(ctx, set)
	if err != nil {
		g.log.Error(ctx, "saving card set failed", "error", err)
		g.fail(err)
		return "", err
	}

	g.log.Info(ctx, "card set saved", "id", id, "cards", len(set.Cards))
	g.Reset()
	return id, nil
}

func (g *Generator) fail(err error) {
	g.update(func(st *GenerateState) bool {
		st.Err = err
		return true
	})
}

func draftCardSet(st GenerateState) (models.CardSet, error) {
	name := strings.TrimSpace(st.CardSetName)
	if name == "" {
		return models.CardSet{}, fmt.Errorf("%w: card set name is required", common.ErrValidation)
	}
	if len(st.PreviewCards) == 0 {
		return models.CardSet{}, fmt.Errorf("%w: there are no cards to save", common.ErrValidation)
	}

	return models.CardSet{
		Name:        name,
		Theme:       strings.TrimSpace(st.CardSetTheme),
		Tags:        slices.Clone(st.CardSetTags),
		Cards:       slices.Clone(st.PreviewCards),
		SourceType:  st.InputType,
		SourceValue: sourceValue(st.InputValue),
	}, nil
}

func sourceValue(v models.InputValue) string {
	switch in := v.(type) {
	case models.MediaInput:
		return in.Name
	case models.TextInput:
		s := string(in)
		if utf8.RuneCountInString(s) <= sourcePreviewChars {
			return s
		}
		return string([]rune(s)[:sourcePreviewChars])
	default:
		return ""
	}
}
