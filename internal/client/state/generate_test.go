package state

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/flashgenius/internal/client/content"
	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestGenerator_InitialState(t *testing.T) {
	s := newTestStore(Deps{DefaultLanguage: "German"})
	st := s.Generate.State()

	assert.Equal(t, models.InputNone, st.InputType)
	assert.Nil(t, st.InputValue)
	assert.Equal(t, models.GenerationOptions{CardType: models.CardTypeTermDefinition, Language: "German"}, st.Options)
	assert.NotNil(t, st.PreviewCards)
	assert.Empty(t, st.PreviewCards)
	assert.NotNil(t, st.CardSetTags)
	assert.False(t, st.IsLoading)
	assert.NoError(t, st.Err)
}

func TestGenerator_SetGenerationOptions_Merges(t *testing.T) {
	s := newTestStore(Deps{})
	before := s.Generate.State().Options

	s.Generate.SetGenerationOptions(models.OptionsPatch{AdditionalPrompt: ptr("focus on dates")})
	s.Generate.SetGenerationOptions(models.OptionsPatch{CardType: ptr(models.CardTypeQA)})

	got := s.Generate.State().Options
	assert.Equal(t, models.CardTypeQA, got.CardType)
	assert.Equal(t, "English", got.Language)
	assert.Equal(t, "focus on dates", got.AdditionalPrompt)
	assert.Equal(t, models.CardTypeTermDefinition, before.CardType, "earlier snapshot must not change")
}

func TestGenerator_CardSetTags(t *testing.T) {
	s := newTestStore(Deps{})

	s.Generate.SetCardSetTags([]string{" bio ", "", "exam", "bio"})
	assert.Equal(t, []string{"bio", "exam"}, s.Generate.State().CardSetTags)

	s.Generate.AddCardSetTag("exam")
	s.Generate.AddCardSetTag("  ")
	s.Generate.AddCardSetTag("cells")
	assert.Equal(t, []string{"bio", "exam", "cells"}, s.Generate.State().CardSetTags)

	s.Generate.RemoveCardSetTag("bio")
	s.Generate.RemoveCardSetTag("missing")
	assert.Equal(t, []string{"exam", "cells"}, s.Generate.State().CardSetTags)
}

func TestGenerator_GeneratePreview_RequiresInput(t *testing.T) {
	tests := []struct {
		name  string
		typ   models.InputType
		value models.InputValue
	}{
		{"no type", models.InputNone, models.TextInput("text")},
		{"no value", models.InputText, nil},
		{"blank text", models.InputText, models.TextInput("   ")},
		{"empty file", models.InputFile, models.MediaInput{Name: "a.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := &fakeCards{}
			s := newTestStore(Deps{Cards: cards})
			s.Generate.SetInputType(tt.typ)
			s.Generate.SetInputValue(tt.value)

			err := s.Generate.GeneratePreview(context.Background())

			require.ErrorIs(t, err, common.ErrValidation)
			st := s.Generate.State()
			assert.ErrorIs(t, st.Err, common.ErrValidation)
			assert.False(t, st.IsLoading)
			assert.Zero(t, cards.calls())
		})
	}
}

func TestGenerator_GeneratePreview_Success(t *testing.T) {
	cards := &fakeCards{cards: []models.GeneratedCard{
		{Front: "Mitochondria", Back: "Powerhouse of the cell"},
		{Front: "Ribosome", Back: "Protein synthesis"},
	}}
	s := newTestStore(Deps{Cards: cards})
	s.Generate.SetInputType(models.InputText)
	s.Generate.SetInputValue(models.TextInput("cell biology notes"))
	s.Generate.SetGenerationOptions(models.OptionsPatch{CardType: ptr(models.CardTypeQA)})

	require.NoError(t, s.Generate.GeneratePreview(context.Background()))

	st := s.Generate.State()
	want := []models.Flashcard{
		{ID: "id-1", Front: "Mitochondria", Back: "Powerhouse of the cell"},
		{ID: "id-2", Front: "Ribosome", Back: "Protein synthesis"},
	}
	if diff := cmp.Diff(want, st.PreviewCards); diff != "" {
		t.Fatalf("preview mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, st.IsLoading)
	assert.NoError(t, st.Err)
	assert.Empty(t, st.WarningMessage)

	require.Len(t, cards.reqs, 1)
	req := cards.reqs[0]
	assert.Equal(t, models.InputText, req.InputType)
	assert.Equal(t, "cell biology notes", req.InputValue)
	require.NotNil(t, req.GenerationOptions)
	assert.Equal(t, models.CardTypeQA, req.GenerationOptions.CardType)
}

func TestGenerator_GeneratePreview_TruncationWarning(t *testing.T) {
	res := &fakeResolver{payload: models.Payload{InputType: models.InputText, Value: "abc", Truncated: true}}
	s := newTestStore(Deps{
		Cards:         &fakeCards{cards: []models.GeneratedCard{{Front: "f", Back: "b"}}},
		Resolver:      res,
		MaxInputChars: 3,
	})
	s.Generate.SetInputType(models.InputText)
	s.Generate.SetInputValue(models.TextInput("abcdef"))

	require.NoError(t, s.Generate.GeneratePreview(context.Background()))

	st := s.Generate.State()
	assert.Contains(t, st.WarningMessage, "truncated")
	assert.Len(t, st.PreviewCards, 1)
}

func TestGenerator_GeneratePreview_DefaultLimit(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		wantWarning bool
	}{
		{"at limit", common.MaxInputChars, false},
		{"one over", common.MaxInputChars + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := &fakeCards{cards: []models.GeneratedCard{{Front: "f", Back: "b"}}}
			s := newTestStore(Deps{Cards: cards, Resolver: content.NewResolver(nil, 0, 0)})
			s.Generate.SetInputType(models.InputText)
			s.Generate.SetInputValue(models.TextInput(strings.Repeat("a", tt.n)))

			require.NoError(t, s.Generate.GeneratePreview(context.Background()))

			require.Len(t, cards.reqs, 1)
			assert.Len(t, cards.reqs[0].InputValue, common.MaxInputChars)
			st := s.Generate.State()
			if tt.wantWarning {
				assert.Equal(t, content.TruncationNotice(common.MaxInputChars), st.WarningMessage)
			} else {
				assert.Empty(t, st.WarningMessage)
			}
		})
	}
}

func TestGenerator_GeneratePreview_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("resolver", func(t *testing.T) {
		cards := &fakeCards{}
		s := newTestStore(Deps{Cards: cards, Resolver: &fakeResolver{err: boom}})
		s.Generate.SetInputType(models.InputURL)
		s.Generate.SetInputValue(models.TextInput("https://example.com"))

		err := s.Generate.GeneratePreview(context.Background())
		require.ErrorIs(t, err, boom)
		assert.ErrorIs(t, s.Generate.State().Err, boom)
		assert.Zero(t, cards.calls())
	})

	t.Run("generator", func(t *testing.T) {
		s := newTestStore(Deps{Cards: &fakeCards{err: boom}})
		s.Generate.AddPreviewCard(&models.Flashcard{Front: "old"})
		s.Generate.SetInputType(models.InputText)
		s.Generate.SetInputValue(models.TextInput("notes"))

		err := s.Generate.GeneratePreview(context.Background())
		require.ErrorIs(t, err, boom)

		st := s.Generate.State()
		assert.ErrorIs(t, st.Err, boom)
		assert.False(t, st.IsLoading)
		assert.Empty(t, st.PreviewCards, "preview is cleared when generation starts")
	})
}

func TestGenerator_GeneratePreview_Busy(t *testing.T) {
	cards := &fakeCards{
		cards:   []models.GeneratedCard{{Front: "f", Back: "b"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestStore(Deps{Cards: cards})
	s.Generate.SetInputType(models.InputText)
	s.Generate.SetInputValue(models.TextInput("notes"))

	done := make(chan error, 1)
	go func() { done <- s.Generate.GeneratePreview(context.Background()) }()
	<-cards.started

	assert.True(t, s.Generate.State().IsLoading)
	assert.ErrorIs(t, s.Generate.GeneratePreview(context.Background()), ErrBusy)

	close(cards.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, cards.calls())
	assert.Len(t, s.Generate.State().PreviewCards, 1)
}

// startGenerate runs GeneratePreview in the background and waits for the
// generation call.
func startGenerate(t *testing.T, s *Store, cards *fakeCards, text string) (cardsCall, <-chan error) {
	t.Helper()
	s.Generate.SetInputType(models.InputText)
	s.Generate.SetInputValue(models.TextInput(text))
	done := make(chan error, 1)
	go func() { done <- s.Generate.GeneratePreview(context.Background()) }()
	return <-cards.pending, done
}

func TestGenerator_ResetRetiresRunningGeneration(t *testing.T) {
	cards := &fakeCards{pending: make(chan cardsCall)}
	s := newTestStore(Deps{Cards: cards})

	first, firstDone := startGenerate(t, s, cards, "first")
	s.Generate.Reset()
	assert.False(t, s.Generate.State().IsLoading)
	assert.ErrorIs(t, first.ctx.Err(), context.Canceled)

	second, secondDone := startGenerate(t, s, cards, "second")

	first.reply <- cardsReply{cards: []models.GeneratedCard{{Front: "stale", Back: "b"}}}
	require.NoError(t, <-firstDone)

	st := s.Generate.State()
	assert.True(t, st.IsLoading, "second generation is still running")
	assert.Empty(t, st.PreviewCards)
	assert.ErrorIs(t, s.Generate.GeneratePreview(context.Background()), ErrBusy)

	second.reply <- cardsReply{cards: []models.GeneratedCard{{Front: "fresh", Back: "b"}}}
	require.NoError(t, <-secondDone)

	st = s.Generate.State()
	assert.False(t, st.IsLoading)
	require.Len(t, st.PreviewCards, 1)
	assert.Equal(t, "fresh", st.PreviewCards[0].Front)
	assert.Equal(t, 2, cards.calls())
}

func TestGenerator_FailureAfterResetIsDropped(t *testing.T) {
	cards := &fakeCards{pending: make(chan cardsCall)}
	s := newTestStore(Deps{Cards: cards})

	call, done := startGenerate(t, s, cards, "notes")
	s.Generate.Reset()
	count := countNotifications(s)

	call.reply <- cardsReply{err: context.Canceled}
	require.ErrorIs(t, <-done, context.Canceled)

	st := s.Generate.State()
	assert.NoError(t, st.Err)
	assert.False(t, st.IsLoading)
	assert.Zero(t, count())
}

func TestGenerator_PreviewEditing(t *testing.T) {
	s := newTestStore(Deps{})
	s.Generate.AddPreviewCard(nil)
	s.Generate.AddPreviewCard(&models.Flashcard{Front: "Q", Back: "A"})
	s.Generate.AddPreviewCard(&models.Flashcard{ID: "keep", Front: "Q2"})

	st := s.Generate.State()
	require.Len(t, st.PreviewCards, 3)
	assert.Equal(t, models.Flashcard{ID: "id-1"}, st.PreviewCards[0])
	assert.Equal(t, "id-2", st.PreviewCards[1].ID)
	assert.Equal(t, "keep", st.PreviewCards[2].ID)

	s.Generate.UpdatePreviewCard(1, models.FlashcardPatch{Back: ptr("Answer")})
	s.Generate.UpdatePreviewCard(7, models.FlashcardPatch{Back: ptr("ignored")})
	s.Generate.DeletePreviewCard(0)
	s.Generate.DeletePreviewCard(-1)

	got := s.Generate.State().PreviewCards
	want := []models.Flashcard{
		{ID: "id-2", Front: "Q", Back: "Answer"},
		{ID: "keep", Front: "Q2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("preview mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, st.PreviewCards, 3, "earlier snapshot must not change")
	assert.Equal(t, "A", st.PreviewCards[1].Back)
}

func TestGenerator_OutOfRangeEditsDoNotNotify(t *testing.T) {
	s := newTestStore(Deps{})
	count := countNotifications(s)

	s.Generate.UpdatePreviewCard(0, models.FlashcardPatch{Front: ptr("x")})
	s.Generate.DeletePreviewCard(3)

	assert.Zero(t, count())
}

func TestGenerator_Save(t *testing.T) {
	long := strings.Repeat("é", 150)
	saver := &fakeSaver{id: "set-1"}
	s := newTestStore(Deps{})
	s.Generate.SetInputType(models.InputText)
	s.Generate.SetInputValue(models.TextInput(long))
	s.Generate.AddPreviewCard(&models.Flashcard{Front: "Q", Back: "A"})
	s.Generate.SetCardSetName("  Cells  ")
	s.Generate.SetCardSetTheme("Biology")
	s.Generate.SetCardSetTags([]string{"bio"})

	id, err := s.Generate.Save(context.Background(), saver)
	require.NoError(t, err)
	assert.Equal(t, "set-1", id)

	require.Len(t, saver.got, 1)
	got := saver.got[0]
	assert.Equal(t, "Cells", got.Name)
	assert.Equal(t, "Biology", got.Theme)
	assert.Equal(t, []string{"bio"}, got.Tags)
	assert.Equal(t, models.InputText, got.SourceType)
	assert.Equal(t, strings.Repeat("é", 100), got.SourceValue)
	assert.Len(t, got.Cards, 1)

	st := s.Generate.State()
	assert.Empty(t, st.PreviewCards)
	assert.Empty(t, st.CardSetName)
	assert.Equal(t, models.InputNone, st.InputType)
}

func TestGenerator_Save_MediaSourceIsFileName(t *testing.T) {
	saver := &fakeSaver{id: "set-1"}
	s := newTestStore(Deps{})
	s.Generate.SetInputType(models.InputFile)
	s.Generate.SetInputValue(models.MediaInput{Name: "slide.png", Data: []byte{1}, MIME: "image/png"})
	s.Generate.AddPreviewCard(&models.Flashcard{Front: "Q", Back: "A"})
	s.Generate.SetCardSetName("Slides")

	_, err := s.Generate.Save(context.Background(), saver)
	require.NoError(t, err)
	assert.Equal(t, "slide.png", saver.got[0].SourceValue)
}

func TestGenerator_Save_Failures(t *testing.T) {
	t.Run("missing name", func(t *testing.T) {
		saver := &fakeSaver{}
		s := newTestStore(Deps{})
		s.Generate.AddPreviewCard(nil)

		_, err := s.Generate.Save(context.Background(), saver)
		require.ErrorIs(t, err, common.ErrValidation)
		assert.Empty(t, saver.got)
		assert.Len(t, s.Generate.State().PreviewCards, 1)
	})

	t.Run("no cards", func(t *testing.T) {
		s := newTestStore(Deps{})
		s.Generate.SetCardSetName("Cells")

		_, err := s.Generate.Save(context.Background(), &fakeSaver{})
		require.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("store error keeps draft", func(t *testing.T) {
		boom := errors.New("disk full")
		s := newTestStore(Deps{})
		s.Generate.SetCardSetName("Cells")
		s.Generate.AddPreviewCard(nil)

		_, err := s.Generate.Save(context.Background(), &fakeSaver{err: boom})
		require.ErrorIs(t, err, boom)

		st := s.Generate.State()
		assert.ErrorIs(t, st.Err, boom)
		assert.Equal(t, "Cells", st.CardSetName)
		assert.Len(t, st.PreviewCards, 1)
	})
}

func TestGenerator_Reset(t *testing.T) {
	s := newTestStore(Deps{})
	s.Generate.SetInputType(models.InputText)
	s.Generate.SetCardSetTags([]string{"a"})
	s.Generate.AddPreviewCard(nil)
	before := s.Generate.State()

	s.Generate.Reset()

	st := s.Generate.State()
	assert.Equal(t, models.InputNone, st.InputType)
	assert.Empty(t, st.CardSetTags)
	assert.Empty(t, st.PreviewCards)
	assert.Equal(t, []string{"a"}, before.CardSetTags)
}
