package config

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const fallbackLanguage = "English"

// DetectLanguage names, in English, the language of the process locale as
// found in LC_ALL, LC_MESSAGES or LANG.
func DetectLanguage(getenv func(string) string) string {
	var locale string
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if locale = getenv(key); locale != "" {
			break
		}
	}

	// de_DE.UTF-8@euro -> de-DE
	locale, _, _ = strings.Cut(locale, ".")
	locale, _, _ = strings.Cut(locale, "@")
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return fallbackLanguage
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return fallbackLanguage
	}
	base, conf := tag.Base()
	if conf == language.No {
		return fallbackLanguage
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return fallbackLanguage
}
