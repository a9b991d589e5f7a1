package gen

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	// Singular words that end with "s" and are not covered by the
	// "ss", "us" and "is" suffixes.
	for _, w := range []string{"Alias", "Atlas", "Canvas", "Gas", "News", "Series", "Species"} {
		rules.AddSingularExact(w, w, true)
	}
	return rules
}

// pascal converts a field name or path segment to PascalCase. The casing
// inside words is kept, so "subdocWithoutDefault" becomes
// "SubdocWithoutDefault" and "first_name" becomes "FirstName".
func pascal(s string) string {
	// Casers are stateful, and synthesis runs in parallel.
	title := cases.Title(language.Und, cases.NoLower)
	words := strings.FieldsFunc(s, isSeparator)
	var b strings.Builder
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, w)
		b.WriteString(title.String(w))
	}
	return b.String()
}

// singular returns the singular form of the last word of a PascalCase name.
func singular(s string) string {
	i := lastWord(s)
	word := s[i:]
	switch {
	case word == "":
		return s
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return s
	}
	return s[:i] + rules.Singularize(word)
}

// lastWord returns the index of the last word of a PascalCase name.
func lastWord(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		if unicode.IsUpper(rune(s[i])) && !unicode.IsUpper(rune(s[i-1])) {
			return i
		}
	}
	return 0
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}
