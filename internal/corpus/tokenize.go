package corpus

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// span is a token located in the original text by byte offsets.
type span struct {
	start, end int
	norm       string
}

// isWordRune reports whether r belongs to a token. Combining marks and
// inner apostrophes stay attached so "ng'ombe" and decomposed vowels
// remain one token.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’' || r == 'ʼ'
}

// tokenize splits text into runs of letters and numbers. Each token is
// normalized to NFC and case folded.
func tokenize(text string) []span {
	var (
		out   []span
		start = -1
		fold  = cases.Fold()
	)
	flush := func(end int) {
		if start < 0 {
			return
		}
		out = append(out, span{start: start, end: end, norm: fold.String(norm.NFC.String(text[start:end]))})
		start = -1
	}

	for i, r := range text {
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		case isApostrophe(r) && start >= 0:
			next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
			if !isWordRune(next) {
				flush(i)
			}
		default:
			flush(i)
		}
	}
	flush(len(text))
	return out
}

// countSentences counts runs of sentence terminators that follow a token.
// Text without terminators but with tokens counts as one sentence.
func countSentences(text string) int {
	n := 0
	inWords := false
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?' || r == '…':
			if inWords {
				n++
				inWords = false
			}
		case isWordRune(r):
			inWords = true
		}
	}
	if inWords {
		n++
	}
	return n
}

// Normalize returns the folded form used to match tokens.
func Normalize(word string) []string {
	spans := tokenize(word)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.norm
	}
	return out
}
