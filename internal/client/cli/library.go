package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/samber/lo"
)

func (a *App) printSet(s models.CardSet) {
	meta := []string{fmt.Sprintf("%d cards", len(s.Cards))}
	if s.Theme != "" {
		meta = append(meta, s.Theme)
	}
	for _, t := range s.Tags {
		meta = append(meta, "#"+t)
	}
	fmt.Fprintf(a.out, "%s  %s  (%s)\n", s.ID, s.Name, strings.Join(meta, ", "))
}

// Library lists the card sets that pass the current filters.
func (a *App) Library(_ context.Context, _ []string) error {
	st := a.store.Library.State()
	if st.IsLoading {
		fmt.Fprintln(a.out, "The library is still loading.")
		return nil
	}

	if st.FilterTheme != "" || len(st.FilterTags) > 0 {
		fmt.Fprintf(a.out, "Filters: theme=%q tags=%s\n", st.FilterTheme, strings.Join(st.FilterTags, ","))
	}
	if len(st.FilteredCardSets) == 0 {
		fmt.Fprintf(a.out, "No card sets to show (%d in library).\n", len(st.AllCardSets))
	}
	for _, s := range st.FilteredCardSets {
		a.printSet(s)
	}
	if len(st.AvailableThemes) > 0 {
		fmt.Fprintln(a.out, "Themes:", strings.Join(st.AvailableThemes, ", "))
	}
	if len(st.AvailableTags) > 0 {
		fmt.Fprintln(a.out, "Tags:", strings.Join(st.AvailableTags, ", "))
	}
	return nil
}

func (a *App) FilterTheme(ctx context.Context, args []string) error {
	a.store.Library.SetFilterTheme(strings.Join(args, " "))
	return a.Library(ctx, nil)
}

func (a *App) FilterTag(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	a.store.Library.AddFilterTag(args[0])
	return a.Library(ctx, nil)
}

func (a *App) UnfilterTag(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	a.store.Library.RemoveFilterTag(args[0])
	return a.Library(ctx, nil)
}

func (a *App) ClearFilters(ctx context.Context, _ []string) error {
	a.store.Library.ResetFilters()
	return a.Library(ctx, nil)
}

// Show prints one card set with all of its cards.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	s, err := a.library.GetCardSetByID(ctx, args[0])
	if err != nil {
		return err
	}

	a.printSet(s)
	if s.Description != "" {
		fmt.Fprintln(a.out, s.Description)
	}
	if s.SourceType != models.InputNone {
		fmt.Fprintf(a.out, "Source: %s %s\n", s.SourceType, s.SourceValue)
	}
	fmt.Fprintf(a.out, "Created %s, updated %s\n",
		s.CreatedAt.Format("2006-01-02 15:04"), s.UpdatedAt.Format("2006-01-02 15:04"))
	for i, c := range s.Cards {
		fmt.Fprintf(a.out, "%3d. %s\n     %s\n", i+1, c.Front, c.Back)
	}
	return nil
}

// EditSet prompts for a card set's name, theme and tags. Empty answers keep
// the current values; "-" clears the theme or the tags.
func (a *App) EditSet(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	s, err := a.library.GetCardSetByID(ctx, args[0])
	if err != nil {
		return err
	}

	name, err := GetDefaultText(a.reader, "Card set name", s.Name, a.out)
	if err != nil {
		return err
	}
	theme, err := GetDefaultText(a.reader, "Theme", s.Theme, a.out)
	if err != nil {
		return err
	}
	tagLine, err := GetDefaultText(a.reader, "Tags (comma separated)", strings.Join(s.Tags, ", "), a.out)
	if err != nil {
		return err
	}
	if theme == "-" {
		theme = ""
	}
	tags := splitList(tagLine)
	if tagLine == "-" {
		tags = []string{}
	}

	n, err := a.library.UpdateCardSet(ctx, s.ID, models.CardSetPatch{Name: &name, Theme: &theme, Tags: &tags})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("card set[%s]: %w", s.ID, common.ErrNotFound)
	}
	fmt.Fprintln(a.out, "Updated card set", s.ID)
	return nil
}

// Tags lists every tag in the library registry.
func (a *App) Tags(ctx context.Context, _ []string) error {
	known, err := a.library.KnownTags(ctx)
	if err != nil {
		return err
	}
	if len(known) == 0 {
		fmt.Fprintln(a.out, "No tags yet.")
		return nil
	}
	names := lo.Map(known, func(t models.Tag, _ int) string { return t.Name })
	fmt.Fprintln(a.out, "Tags:", strings.Join(names, ", "))
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.library.DeleteCardSet(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted card set", args[0])
	return nil
}

// Dashboard shows library totals, the most recent sets and the set that
// has gone longest without changes.
func (a *App) Dashboard(ctx context.Context, _ []string) error {
	view, err := a.library.Snapshot(ctx)
	if err != nil {
		return err
	}
	cards := 0
	for _, s := range view.CardSets {
		cards += len(s.Cards)
	}
	fmt.Fprintf(a.out, "%d card sets, %d cards, %d themes, %d tags\n",
		len(view.CardSets), cards, len(view.Themes), len(view.Tags))

	recent, err := a.library.RecentCardSets(ctx, 0)
	if err != nil {
		return err
	}
	if len(recent) > 0 {
		fmt.Fprintln(a.out, "Recent:")
		for _, s := range recent {
			a.printSet(s)
		}
	}

	suggested, ok, err := a.library.SuggestedCardSet(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(a.out, "Suggested for study: %s (study %s)\n", suggested.Name, suggested.ID)
	}
	return nil
}
