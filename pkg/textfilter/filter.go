// Package textfilter tidies generated narrative text before it reaches a
// player: it strips formatting the terminal cannot show and, for family
// ratings, softens profanity.
package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps each filtered word to a tavern-friendly alternative.
var replacements = map[string]string{
	"damn":         "dang",
	"goddamn":      "gosh-dang",
	"hell":         "heck",
	"shit":         "shoot",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"crap":         "crud",
	"fuck":         "fudge",
	"motherfucker": "mother-trucker",
	"ass":          "rump",
	"asshole":      "scoundrel",
	"jackass":      "lout",
	"dumbass":      "dullard",
	"bastard":      "knave",
	"bitch":        "wretch",
	"prick":        "knave",
	"piss":         "spit",
	"whore":        "[censored]",
	"slut":         "[censored]",
}

// Filter replaces profanity with milder words, keeping the original casing
// and plural suffix.
type Filter struct {
	words   []string
	regexes map[string]*regexp.Regexp
}

// New compiles a Filter. Longer words are tried first so "asshole" is not
// matched as "ass".
func New() *Filter {
	f := &Filter{
		regexes: make(map[string]*regexp.Regexp, len(replacements)),
	}
	for w := range replacements {
		f.words = append(f.words, w)
		f.regexes[w] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `(e?s)?\b`)
	}
	sort.Slice(f.words, func(i, j int) bool {
		if len(f.words[i]) != len(f.words[j]) {
			return len(f.words[i]) > len(f.words[j])
		}
		return f.words[i] < f.words[j]
	})
	return f
}

// Apply returns text with every filtered word replaced.
func (f *Filter) Apply(text string) string {
	for _, w := range f.words {
		re := f.regexes[w]
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			sub := re.FindStringSubmatch(match)
			stem, suffix := match[:len(match)-len(sub[1])], sub[1]
			out := matchCase(stem, replacements[w])
			if suffix == "" || strings.HasPrefix(out, "[") {
				return out
			}
			if strings.ToUpper(stem) == stem {
				return out + strings.ToUpper(plural(out))
			}
			return out + plural(out)
		})
	}
	return text
}

func plural(word string) string {
	for _, end := range []string{"s", "x", "ch", "sh"} {
		if strings.HasSuffix(strings.ToLower(word), end) {
			return "es"
		}
	}
	return "s"
}

// Contains reports whether text has any filtered word.
func (f *Filter) Contains(text string) bool {
	for _, w := range f.words {
		if f.regexes[w].MatchString(text) {
			return true
		}
	}
	return false
}

// matchCase shapes replacement after the casing of original.
func matchCase(original, replacement string) string {
	title := cases.Title(language.English)
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return strings.ToLower(replacement)
	case title.String(strings.ToLower(original)) == original:
		return title.String(replacement)
	}

	orig := []rune(original)
	out := make([]rune, 0, len(replacement))
	for i, r := range replacement {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out = append(out, unicode.ToUpper(r))
		} else {
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

// Filtered reports whether a content rating calls for filtering.
func Filtered(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	}
	return false
}

var (
	bold       = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italic     = regexp.MustCompile(`\*([^*\n]+)\*`)
	headings   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Clean removes markdown emphasis and headings and wrapping quotes from
// generated text, and collapses runs of blank lines.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	text = headings.ReplaceAllString(text, "")
	text = bold.ReplaceAllString(text, "$1")
	text = italic.ReplaceAllString(text, "$1")
	text = blankLines.ReplaceAllString(text, "\n\n")
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' && strings.Count(text, `"`) == 2 {
		text = text[1 : len(text)-1]
	}
	return strings.TrimSpace(text)
}

// ForRating returns the text post-processor for a content rating.
func ForRating(rating string) func(string) string {
	if !Filtered(rating) {
		return Clean
	}
	f := New()
	return func(text string) string {
		return f.Apply(Clean(text))
	}
}
