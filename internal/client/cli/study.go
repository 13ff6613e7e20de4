package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/client/state"
	"github.com/dmitrijs2005/flashgenius/internal/common"
)

func (a *App) printStudy() {
	st := a.store.Study.State()
	switch st.Phase {
	case state.PhaseIdle:
		fmt.Fprintln(a.out, "No study session. Start one with: study <id>")
	case state.PhaseCompleted:
		fmt.Fprintf(a.out, "Session complete: %d cards reviewed. Use shuffle to go again, keep to save hints, end to finish.\n", len(st.CurrentDeck))
	case state.PhaseActive:
		c := st.CurrentCard
		fmt.Fprintf(a.out, "Card %d/%d\n", st.CurrentCardIndex+1, len(st.CurrentDeck))
		if st.IsFrontVisible {
			fmt.Fprintln(a.out, "Front:", c.Front)
			if c.FrontImage != "" {
				fmt.Fprintln(a.out, "Image:", c.FrontImage)
			}
		} else {
			fmt.Fprintln(a.out, "Back:", c.Back)
			if c.BackImage != "" {
				fmt.Fprintln(a.out, "Image:", c.BackImage)
			}
		}
		if st.CurrentHint != "" {
			fmt.Fprintln(a.out, "Hint:", st.CurrentHint)
		}
		if st.CurrentDetails != "" {
			fmt.Fprintln(a.out, "Details:", st.CurrentDetails)
		}
	}
}

// Study starts a session over the given card sets. Besides ids, args may
// hold theme=<name> and tag=<name> selectors that pick every matching set.
// Ids that no longer exist are reported and skipped.
func (a *App) Study(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	ids, err := a.studyIDs(ctx, args)
	if err != nil {
		return err
	}
	sets, missing, err := a.library.LoadForStudy(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		fmt.Fprintln(a.out, "Skipped missing card sets:", strings.Join(missing, ", "))
	}
	a.store.Study.Start(sets)
	a.printStudy()
	return nil
}

func (a *App) studyIDs(ctx context.Context, args []string) ([]string, error) {
	var ids []string
	var f models.CardSetFilter
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "theme="):
			f.Theme = strings.TrimPrefix(arg, "theme=")
		case strings.HasPrefix(arg, "tag="):
			f.Tags = append(f.Tags, strings.TrimPrefix(arg, "tag="))
		default:
			ids = append(ids, arg)
		}
	}
	if f.Theme == "" && len(f.Tags) == 0 {
		return ids, nil
	}

	matched, err := a.library.ListCardSets(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 && len(ids) == 0 {
		return nil, fmt.Errorf("card sets matching %s: %w", strings.Join(args, " "), common.ErrNotFound)
	}
	for _, s := range matched {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (a *App) Next(_ context.Context, _ []string) error {
	a.store.Study.Next()
	a.printStudy()
	return nil
}

func (a *App) Prev(_ context.Context, _ []string) error {
	a.store.Study.Previous()
	a.printStudy()
	return nil
}

func (a *App) Flip(_ context.Context, _ []string) error {
	a.store.Study.Flip()
	a.printStudy()
	return nil
}

func wantsAgain(args []string) bool {
	return len(args) > 0 && args[0] == "again"
}

func (a *App) Hint(ctx context.Context, args []string) error {
	if err := a.store.Study.FetchHint(ctx, wantsAgain(args)); err != nil {
		return err
	}
	a.printStudy()
	return nil
}

func (a *App) Details(ctx context.Context, args []string) error {
	if err := a.store.Study.FetchDetails(ctx, wantsAgain(args)); err != nil {
		return err
	}
	a.printStudy()
	return nil
}

func (a *App) Hide(_ context.Context, args []string) error {
	what := ""
	if len(args) > 0 {
		what = args[0]
	}
	switch what {
	case "":
		a.store.Study.HideHint()
		a.store.Study.HideDetails()
	case "hint":
		a.store.Study.HideHint()
	case "details":
		a.store.Study.HideDetails()
	default:
		return errUsage
	}
	a.printStudy()
	return nil
}

func (a *App) Shuffle(_ context.Context, _ []string) error {
	a.store.Study.Shuffle()
	a.printStudy()
	return nil
}

// Keep writes the hints and details gathered in this session back to the
// studied card sets.
func (a *App) Keep(ctx context.Context, _ []string) error {
	st := a.store.Study.State()
	n, err := a.library.ApplyStudyCache(ctx, st.ActiveCardSetIDs, a.store.Study.CachedResponses())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved hints and details to %d card set(s).\n", n)
	return nil
}

func (a *App) End(_ context.Context, _ []string) error {
	a.store.Study.Reset()
	fmt.Fprintln(a.out, "Study session ended.")
	return nil
}
