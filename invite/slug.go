package invite

import (
	"fmt"
	"strings"
	"unicode"

	"doorlist/lib/clock"
)

// GenerateSlug derives a shareable path segment from a display name:
// lowercased, whitespace runs replaced with dashes, suffixed with the
// current Unix time in milliseconds. The timestamp keeps two links for
// the same name apart; the slug is a tracking convenience, not a key.
func GenerateSlug(displayName string) string {
	name := strings.ToLower(strings.TrimSpace(displayName))
	name = strings.Join(strings.Fields(name), "-")
	return fmt.Sprintf("%s-%d", name, clock.Millis())
}

// RecoverDisplayName turns a slug back into a presentable name: the
// trailing -<digits> suffix is stripped when present, then each word is
// title-cased and the words rejoined with single spaces. Names that
// legitimately end in digits are not supported input.
func RecoverDisplayName(slug string) string {
	base := stripTimestamp(slug)
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// stripTimestamp removes one trailing -<digits> group; a no-op when the
// slug carries no generated suffix.
func stripTimestamp(slug string) string {
	i := strings.LastIndexByte(slug, '-')
	if i < 0 || i == len(slug)-1 {
		return slug
	}
	for _, r := range slug[i+1:] {
		if r < '0' || r > '9' {
			return slug
		}
	}
	return slug[:i]
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
