package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/flashgenius/internal/client/content"
	"github.com/dmitrijs2005/flashgenius/internal/client/media"
	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/filex"
)

// Generate stages the input named by args, asks for generation options and
// generates a preview.
func (a *App) Generate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	t, err := models.ParseInputType(args[0])
	if err != nil {
		return errUsage
	}

	var v models.InputValue
	switch t {
	case models.InputText:
		text, err := GetMultiline(a.reader, "Enter the text to learn from:", a.out)
		if err != nil {
			return err
		}
		v = models.TextInput(text)
	case models.InputURL:
		if len(args) < 2 {
			return errUsage
		}
		v = models.TextInput(args[1])
	case models.InputFile:
		if len(args) < 2 {
			return errUsage
		}
		m, err := content.LoadFile(strings.Join(args[1:], " "), a.config.MaxFileSize)
		if err != nil {
			return err
		}
		v = m
	}

	if err := a.promptOptions(); err != nil {
		return err
	}

	g := a.store.Generate
	g.SetInputType(t)
	g.SetInputValue(v)

	fmt.Fprintln(a.out, "Generating cards...")
	if err := g.GeneratePreview(ctx); err != nil {
		return err
	}
	return a.Preview(ctx, nil)
}

func (a *App) promptOptions() error {
	cur := a.store.Generate.State().Options

	cardType, err := GetDefaultText(a.reader, "Card type (term-definition, qa, image-description)", string(cur.CardType), a.out)
	if err != nil {
		return err
	}
	ct, err := models.ParseCardType(cardType)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	language, err := GetDefaultText(a.reader, "Language", cur.Language, a.out)
	if err != nil {
		return err
	}
	extra, err := GetDefaultText(a.reader, "Additional instructions", cur.AdditionalPrompt, a.out)
	if err != nil {
		return err
	}

	a.store.Generate.SetGenerationOptions(models.OptionsPatch{
		CardType:         &ct,
		Language:         &language,
		AdditionalPrompt: &extra,
	})
	return nil
}

// Preview prints the generated cards and any warning.
func (a *App) Preview(_ context.Context, _ []string) error {
	st := a.store.Generate.State()
	if st.WarningMessage != "" {
		fmt.Fprintln(a.out, "Warning:", st.WarningMessage)
	}
	if len(st.PreviewCards) == 0 {
		fmt.Fprintln(a.out, "The preview is empty.")
		return nil
	}
	for i, c := range st.PreviewCards {
		fmt.Fprintf(a.out, "%3d. %s\n     %s\n", i+1, c.Front, c.Back)
		if c.FrontImage != "" {
			fmt.Fprintln(a.out, "     front image:", c.FrontImage)
		}
		if c.BackImage != "" {
			fmt.Fprintln(a.out, "     back image:", c.BackImage)
		}
	}
	return nil
}

// previewIndex parses a 1-based card number into a preview index.
func (a *App) previewIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	total := len(a.store.Generate.State().PreviewCards)
	if err != nil || n < 1 || n > total {
		return 0, fmt.Errorf("%w: card number must be between 1 and %d", common.ErrValidation, total)
	}
	return n - 1, nil
}

// EditCard prompts for a new front and back; empty answers keep the
// current text.
func (a *App) EditCard(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	i, err := a.previewIndex(args[0])
	if err != nil {
		return err
	}
	card := a.store.Generate.State().PreviewCards[i]

	front, err := GetDefaultText(a.reader, "Front", card.Front, a.out)
	if err != nil {
		return err
	}
	back, err := GetDefaultText(a.reader, "Back", card.Back, a.out)
	if err != nil {
		return err
	}
	a.store.Generate.UpdatePreviewCard(i, models.FlashcardPatch{Front: &front, Back: &back})
	return nil
}

func (a *App) AddCard(_ context.Context, _ []string) error {
	front, err := GetSimpleText(a.reader, "Front", a.out)
	if err != nil {
		return err
	}
	back, err := GetSimpleText(a.reader, "Back", a.out)
	if err != nil {
		return err
	}
	a.store.Generate.AddPreviewCard(&models.Flashcard{Front: front, Back: back})
	return nil
}

func (a *App) DeleteCard(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	i, err := a.previewIndex(args[0])
	if err != nil {
		return err
	}
	a.store.Generate.DeletePreviewCard(i)
	return nil
}

// Image uploads a picture and sets it as the front or back image of a
// preview card.
func (a *App) Image(ctx context.Context, args []string) error {
	if len(args) < 3 || (args[1] != "front" && args[1] != "back") {
		return errUsage
	}
	if a.images == nil {
		return media.ErrNotConfigured
	}
	i, err := a.previewIndex(args[0])
	if err != nil {
		return err
	}

	path := strings.Join(args[2:], " ")
	data, err := filex.ReadLimited(path, a.config.MaxFileSize)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	ref, err := a.images.Put(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}

	p := models.FlashcardPatch{FrontImage: &ref}
	if args[1] == "back" {
		p = models.FlashcardPatch{BackImage: &ref}
	}
	a.store.Generate.UpdatePreviewCard(i, p)
	fmt.Fprintln(a.out, "Image stored as", ref)
	return nil
}

// FetchImage downloads the image behind a card's image ref into a local
// file.
func (a *App) FetchImage(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	if a.images == nil {
		return media.ErrNotConfigured
	}

	data, mime, err := a.images.Get(ctx, args[0])
	if err != nil {
		return err
	}
	path := strings.Join(args[1:], " ")
	if _, err := filex.EnsureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes) to %s\n", mime, len(data), path)
	return nil
}

// Save asks for the set's name, theme and tags and saves the preview.
func (a *App) Save(ctx context.Context, _ []string) error {
	g := a.store.Generate
	st := g.State()
	if len(st.PreviewCards) == 0 {
		return fmt.Errorf("%w: there are no cards to save", common.ErrValidation)
	}

	name, err := GetDefaultText(a.reader, "Card set name", st.CardSetName, a.out)
	if err != nil {
		return err
	}
	theme, err := GetDefaultText(a.reader, "Theme", st.CardSetTheme, a.out)
	if err != nil {
		return err
	}
	tags, err := GetList(a.reader, "Tags", a.out)
	if err != nil {
		return err
	}

	g.SetCardSetName(name)
	g.SetCardSetTheme(theme)
	if len(tags) > 0 {
		g.SetCardSetTags(tags)
	}

	id, err := g.Save(ctx, a.library)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved card set", id)
	return nil
}

func (a *App) ResetPreview(_ context.Context, _ []string) error {
	a.store.Generate.Reset()
	fmt.Fprintln(a.out, "Preview cleared.")
	return nil
}
