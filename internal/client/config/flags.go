package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/flashgenius/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string     path of the local library database
//	-b string     generation backend: api or openai
//	-a string     base URL of the FlashGenius API
//	-t duration   request timeout
//	-lang string  default language of generated cards
//	-l string     log level
//
// Only these flags are taken from args, using flagx.FilterArgs, to avoid
// interference with other components.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-b", "-a", "-t", "-lang", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path of the local library database")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "generation backend (api|openai)")
	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base url of the flashgenius api")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.DefaultLanguage, "lang", cfg.DefaultLanguage, "default language of generated cards")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}
	return nil
}
