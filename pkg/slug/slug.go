package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus combining marks.
var folds = strings.NewReplacer(
	"ı", "i", "ł", "l", "ø", "o", "đ", "d", "ð", "d",
	"ß", "ss", "æ", "ae", "œ", "oe", "þ", "th",
)

// Generate creates a URL-friendly slug from the given name. Accents are
// stripped, so "Café Münster" becomes "cafe-munster".
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = folds.Replace(s)

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithSuffix returns Generate(name) followed by -n, used to disambiguate a
// slug that is already taken. n <= 1 returns the plain slug.
func WithSuffix(name string, n int) string {
	base := Generate(name)
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
