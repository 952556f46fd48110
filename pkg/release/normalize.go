package release

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// romanNumeral matches II-IX after a space. A lone "I" or "X" and a numeral
// starting the title are left alone ("I Robot", "American History X",
// "VII Days").
var romanNumeral = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanToArabic = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

var punctuation = strings.NewReplacer("&", " and ", "-", " ", "'", "", ".", " ", "_", " ")

var leadingArticles = []string{"the ", "a ", "an "}

// CleanTitle normalizes a title for matching: lower case, accents and
// punctuation removed, leading articles dropped from every colon separated
// part, Roman numerals II-IX turned into digits.
func CleanTitle(title string) string {
	s := strings.ToLower(title)
	s = romanNumeral.ReplaceAllStringFunc(s, func(m string) string {
		return " " + romanToArabic[strings.TrimSpace(m)]
	})
	s = foldAccents(s)
	s = punctuation.Replace(s)

	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripArticle(strings.TrimSpace(part))
	}
	s = strings.Join(parts, " ")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripArticle(s string) string {
	for _, art := range leadingArticles {
		if rest, ok := strings.CutPrefix(s, art); ok {
			return rest
		}
	}
	return s
}
