package identity

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform strips diacritics so "Amélie" and "Amelie" normalize to the
// same form.
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowers, de-accents, and collapses a title to single-spaced
// alphanumeric words. It is the shared form for similarity scoring and list
// dedupe keys.
func Normalize(value string) string {
	folded, _, err := transform.String(foldTransform, value)
	if err != nil {
		folded = value
	}
	var builder strings.Builder
	prevSpace := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			builder.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				builder.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(builder.String())
}

// MovieKey derives the stable identity for a watch entry: the IMDb id when
// the history carries one, otherwise a slug of the normalized title and
// year. Entries that normalize identically collapse to the same key on
// purpose.
func MovieKey(imdbID, title string, year int) string {
	if id := strings.TrimSpace(imdbID); id != "" {
		return id
	}
	slug := strings.ReplaceAll(Normalize(title), " ", "-")
	if slug == "" {
		slug = "untitled"
	}
	if year > 0 {
		return slug + "-" + strconv.Itoa(year)
	}
	return slug
}
