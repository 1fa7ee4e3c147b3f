// Package textnorm canonicalizes free text so that lexically equivalent
// Arabic spellings collide in the retrieval vector space.
//
// The same functions run when the index is built and when it is queried.
package textnorm

import (
	"strings"
	"unicode"
)

// Arabic harakat and related combining marks.
const (
	diacriticFirst = 'ً'
	diacriticLast  = 'ٟ'
)

const (
	alef         = 'ا' // ا
	alefMadda    = 'آ' // آ
	alefHamzaUp  = 'أ' // أ
	alefHamzaLow = 'إ' // إ
	alefMaksura  = 'ى' // ى
	yeh          = 'ي' // ي
)

// Normalize strips Arabic diacritics, folds the hamza-bearing alef variants
// to bare alef and folds alef maksura to yeh. It is idempotent.
func Normalize(text string) string {
	return strings.Map(foldRune, text)
}

func foldRune(r rune) rune {
	switch {
	case isDiacritic(r):
		return -1
	case r == alefMadda, r == alefHamzaUp, r == alefHamzaLow:
		return alef
	case r == alefMaksura:
		return yeh
	}
	return r
}

// CleanQuery replaces every rune that is neither a word rune nor whitespace
// with a space. Replacing rather than deleting keeps token boundaries where
// the punctuation was, so a query tokenizes exactly like the passage text it
// was copied from. Arabic diacritics are kept for Normalize to strip, since
// they sit inside words.
func CleanQuery(query string) string {
	return strings.Map(func(r rune) rune {
		if IsWordRune(r) || unicode.IsSpace(r) || isDiacritic(r) {
			return r
		}
		return ' '
	}, query)
}

func isDiacritic(r rune) bool {
	return r >= diacriticFirst && r <= diacriticLast
}

// IsWordRune reports whether r belongs to a token: any letter, any number or
// the underscore.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
