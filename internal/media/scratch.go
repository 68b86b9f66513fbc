package media

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const maxTitleLen = 50

// SanitizeTitle strips characters outside letters, digits, space and
// hyphen and truncates the result so the title is safe to use as part
// of a file name.
func SanitizeTitle(title string) string {
	var b strings.Builder

	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			b.WriteRune(r)
		}
	}

	runes := []rune(strings.TrimSpace(b.String()))
	if len(runes) > maxTitleLen {
		runes = runes[:maxTitleLen]
	}

	s := strings.TrimSpace(string(runes))
	if s == "" {
		return "audio"
	}

	return s
}

// ScratchName builds a collision-free file name for a scratch artifact
// owned by a single pipeline run. Concurrent runs with identical titles
// still get distinct names through the random suffix.
func ScratchName(title, ext string) string {
	return SanitizeTitle(title) + "_" + uuid.NewString()[:8] + ext
}
