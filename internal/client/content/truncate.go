package content

import (
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Truncate keeps the first max characters of s and reports whether anything
// was cut.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

var printer = message.NewPrinter(language.English)

// TruncationNotice is the warning shown when input was cut to max characters.
func TruncationNotice(max int) string {
	return printer.Sprintf("Input content was too long and was truncated to the first %d characters.", max)
}
