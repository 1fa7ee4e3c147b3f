package textnorm

import (
	"reflect"
	"testing"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"drops single runes", "a b cd e", []string{"cd"}},
		{"lowercases", "Fractions ARE Fun", []string{"fractions", "are", "fun"}},
		{"punctuation splits", "roots,squares;cubes", []string{"roots", "squares", "cubes"}},
		{"digits are word runes", "x2 + 10 = 12", []string{"x2", "10", "12"}},
		{"arabic words", "الكسور العشرية في", []string{"الكسور", "العشرية", "في"}},
		{"underscore joins", "snake_case", []string{"snake_case"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokens(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokens_CleanQueryPreservesTokens(t *testing.T) {
	passage := "Simplify: 3/4 + 1/4 = 1 (whole), then compare-fractions."
	got := Tokens(CleanQuery(passage))
	want := Tokens(passage)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokens changed by CleanQuery: got %v, want %v", got, want)
	}
}

func TestTokens_DiacritizedQueryMatchesPassage(t *testing.T) {
	passage := Normalize("الكسور العشرية")
	query := Normalize(CleanQuery("الكُسُور العَشْرِيَّة؟"))
	if !reflect.DeepEqual(Tokens(query), Tokens(passage)) {
		t.Errorf("Tokens(%q) = %v, want %v", query, Tokens(query), Tokens(passage))
	}
}
