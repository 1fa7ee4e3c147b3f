package textnorm

import "strings"

// MinTokenRunes is the shortest run of word runes kept as a token.
const MinTokenRunes = 2

// Tokens lowercases text and returns every maximal run of word runes that is
// at least MinTokenRunes long, in order of appearance. Shorter runs are
// dropped, which keeps single-letter noise out of the vocabulary.
func Tokens(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	start, n := -1, 0
	flush := func(end int) {
		if start >= 0 && n >= MinTokenRunes {
			tokens = append(tokens, text[start:end])
		}
		start, n = -1, 0
	}

	for i, r := range text {
		if IsWordRune(r) {
			if start < 0 {
				start = i
			}
			n++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}
