package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/flashgenius/internal/client/client"
	"github.com/dmitrijs2005/flashgenius/internal/client/config"
	"github.com/dmitrijs2005/flashgenius/internal/client/content"
	"github.com/dmitrijs2005/flashgenius/internal/client/media"
	"github.com/dmitrijs2005/flashgenius/internal/client/services"
	"github.com/dmitrijs2005/flashgenius/internal/client/state"
	"github.com/dmitrijs2005/flashgenius/internal/filex"
	"github.com/dmitrijs2005/flashgenius/internal/logging"
)

// clientID identifies this program in signed API requests.
const clientID = "flashgenius-cli"

// ImageStore keeps card images and hands out refs to them.
type ImageStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, string, error)
}

type App struct {
	config  *config.Config
	store   *state.Store
	library services.LibraryService
	images  ImageStore
	backend client.Client
	db      *sql.DB
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the library database, connects the configured generation
// backend and builds the state store on top of them.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.DBPath); err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DBPath, "error", err)
		return nil, err
	}

	backend, err := newBackend(c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var images ImageStore
	if c.S3.Bucket != "" {
		s3, err := media.NewS3Store(ctx, media.Settings{
			Bucket:    c.S3.Bucket,
			Region:    c.S3.Region,
			Endpoint:  c.S3.Endpoint,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
		})
		if err != nil {
			_ = backend.Close()
			_ = db.Close()
			return nil, err
		}
		images = s3
	}

	store := state.New(state.Deps{
		Cards:           backend,
		Tutor:           backend,
		Resolver:        content.NewResolver(backend, c.MaxInputChars, c.MaxFileSize),
		Logger:          log,
		DefaultLanguage: c.DefaultLanguage,
		MaxInputChars:   c.MaxInputChars,
	})

	a := newApp(c, store, services.NewLibraryService(db, log), images, bufio.NewReader(os.Stdin), os.Stdout)
	a.backend, a.db, a.log = backend, db, log
	return a, nil
}

func newApp(c *config.Config, store *state.Store, library services.LibraryService, images ImageStore, reader *bufio.Reader, out io.Writer) *App {
	return &App{
		config:  c,
		store:   store,
		library: library,
		images:  images,
		log:     logging.Discard(),
		reader:  reader,
		out:     out,
	}
}

func newBackend(c *config.Config) (client.Client, error) {
	switch c.Backend {
	case config.BackendOpenAI:
		return client.NewOpenAIClient(client.OpenAIConfig{
			APIKey:       c.OpenAIKey,
			Model:        c.OpenAIModel,
			BaseURL:      c.OpenAIBaseURL,
			ReaderPrefix: c.ReaderPrefix,
			Timeout:      c.RequestTimeout,
		})
	default:
		var opts []client.HTTPOption
		if c.APISecret != "" {
			opts = append(opts, client.WithSigning(clientID, []byte(c.APISecret), c.APITokenTTL))
		}
		return client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, opts...)
	}
}

// PromptSecrets asks for the OpenAI key without echo when the direct
// backend is selected and no key is configured.
func PromptSecrets(c *config.Config, w io.Writer) error {
	if c.Backend != config.BackendOpenAI || c.OpenAIKey != "" {
		return nil
	}
	key, err := GetSecret(w, "Enter OpenAI API key: ")
	if err != nil {
		return fmt.Errorf("read api key: %w", err)
	}
	c.OpenAIKey = string(key)
	return nil
}

// Run follows the library in the background and serves the REPL until the
// user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.store.Library.Follow(ctx, a.library.Subscribe(ctx))
	stop := a.watchLibraryErrors()
	defer stop()

	fmt.Fprintln(a.out, "Welcome to FlashGenius CLI (type 'help' for commands)")
	runREPL(ctx, a.commands(), a.status, a.reader)
}

// Close releases the backend and the database.
func (a *App) Close() error {
	var errs []error
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) watchLibraryErrors() func() {
	return state.SubscribeSelect(a.store,
		func(s state.Snapshot) error { return s.Library.Err },
		func(x, y error) bool { return x == y },
		func(err error) {
			if err != nil {
				fmt.Fprintln(a.out, "Library error:", describeError(err))
			}
		})
}

func (a *App) status() string {
	st := a.store.Snapshot()
	switch {
	case st.Study.Phase == state.PhaseActive:
		return fmt.Sprintf("(study %d/%d)", st.Study.CurrentCardIndex+1, len(st.Study.CurrentDeck))
	case st.Study.Phase == state.PhaseCompleted:
		return "(study done)"
	case st.Generate.IsLoading:
		return "(generating)"
	case len(st.Generate.PreviewCards) > 0:
		return fmt.Sprintf("(preview %d)", len(st.Generate.PreviewCards))
	}
	return ""
}

func (a *App) commands() []command {
	return []command{
		{name: "generate", aliases: []string{"g"}, usage: "generate text|url <url>|file <path>", help: "generate a card preview", run: a.Generate},
		{name: "preview", aliases: []string{"p"}, usage: "preview", help: "show the card preview", run: a.Preview},
		{name: "edit", usage: "edit <n>", help: "edit preview card n", run: a.EditCard},
		{name: "add", usage: "add", help: "add a card to the preview", run: a.AddCard},
		{name: "del", usage: "del <n>", help: "remove preview card n", run: a.DeleteCard},
		{name: "image", usage: "image <n> front|back <path>", help: "attach an image to preview card n", run: a.Image},
		{name: "fetchimage", usage: "fetchimage <ref> <path>", help: "download a stored card image", run: a.FetchImage},
		{name: "save", usage: "save", help: "save the preview as a card set", run: a.Save},
		{name: "reset", usage: "reset", help: "discard the preview and generation settings", run: a.ResetPreview},
		{name: "library", aliases: []string{"l", "list"}, usage: "library", help: "list card sets matching the filters", run: a.Library},
		{name: "theme", usage: "theme [name]", help: "filter by theme, no name clears it", run: a.FilterTheme},
		{name: "tag", usage: "tag <name>", help: "add a tag filter", run: a.FilterTag},
		{name: "untag", usage: "untag <name>", help: "remove a tag filter", run: a.UnfilterTag},
		{name: "clearfilters", usage: "clearfilters", help: "remove all filters", run: a.ClearFilters},
		{name: "show", usage: "show <id>", help: "show a card set", run: a.Show},
		{name: "editset", usage: "editset <id>", help: "rename a card set or change its theme and tags", run: a.EditSet},
		{name: "delete", usage: "delete <id>", help: "delete a card set", run: a.Delete},
		{name: "tags", usage: "tags", help: "list known tags", run: a.Tags},
		{name: "dashboard", aliases: []string{"d"}, usage: "dashboard", help: "recent sets and a study suggestion", run: a.Dashboard},
		{name: "study", usage: "study <id>... | theme=<name> | tag=<name>", help: "start studying card sets", run: a.Study},
		{name: "next", aliases: []string{"n"}, usage: "next", help: "next card", run: a.Next},
		{name: "prev", usage: "prev", help: "previous card", run: a.Prev},
		{name: "flip", aliases: []string{"f"}, usage: "flip", help: "turn the card over", run: a.Flip},
		{name: "hint", usage: "hint [again]", help: "show a hint, again asks for a new one", run: a.Hint},
		{name: "details", usage: "details [again]", help: "explain the card, again asks anew", run: a.Details},
		{name: "hide", usage: "hide [hint|details]", help: "hide the hint and/or details", run: a.Hide},
		{name: "shuffle", usage: "shuffle", help: "reshuffle and start over", run: a.Shuffle},
		{name: "keep", usage: "keep", help: "save session hints and details to the library", run: a.Keep},
		{name: "end", usage: "end", help: "end the study session", run: a.End},
	}
}
