package corpus

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Line is one keyword-in-context occurrence of a headword.
type Line struct {
	Text  int    `json:"text"`
	Left  string `json:"left"`
	Match string `json:"match"`
	Right string `json:"right"`
}

// Concordance returns every occurrence of headword in texts with up to
// width runes of context on each side. Matching is token based and
// ignores case and Unicode normalization differences; a multi-word
// headword matches consecutive tokens.
func Concordance(ctx context.Context, texts []string, headword string, width int) ([]Line, error) {
	needle := Normalize(headword)
	lines := make([]Line, 0)
	if len(needle) == 0 {
		return lines, nil
	}

	for ti, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spans := tokenize(text)
		for i := 0; i+len(needle) <= len(spans); i++ {
			if !matchAt(spans[i:], needle) {
				continue
			}
			start, end := spans[i].start, spans[i+len(needle)-1].end
			lines = append(lines, Line{
				Text:  ti,
				Left:  lastRunes(text[:start], width),
				Match: text[start:end],
				Right: firstRunes(text[end:], width),
			})
		}
	}
	return lines, nil
}

func matchAt(spans []span, needle []string) bool {
	for j, n := range needle {
		if spans[j].norm != n {
			return false
		}
	}
	return true
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := len(s)
	for count := 0; count < n && i > 0; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return strings.TrimSpace(s[i:])
}

func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for count := 0; count < n && i < len(s); count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return strings.TrimSpace(s[:i])
}
