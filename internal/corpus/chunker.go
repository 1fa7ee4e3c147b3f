// Package corpus turns page texts into passage chunks ready for indexing.
package corpus

import (
	"strings"
	"unicode/utf8"

	"github.com/abhisek/edurag/internal/index"
	"github.com/abhisek/edurag/internal/textnorm"
)

const (
	// MinPageRunes is the length a page must exceed to be chunked at all.
	MinPageRunes = 50

	// MinParagraphRunes is the length a trimmed paragraph must exceed to
	// become a chunk.
	MinParagraphRunes = 30

	paragraphSep = "\n\n"
)

// Page is the extracted text of one page of the source document.
type Page struct {
	Number int
	Text   string
}

// Chunk splits one page into paragraph chunks. Short pages and short
// paragraphs are dropped.
func Chunk(pageText string, page int) []index.Chunk {
	if utf8.RuneCountInString(pageText) <= MinPageRunes {
		return nil
	}

	var chunks []index.Chunk
	for _, para := range strings.Split(pageText, paragraphSep) {
		para = strings.TrimSpace(para)
		if utf8.RuneCountInString(para) <= MinParagraphRunes {
			continue
		}
		chunks = append(chunks, index.Chunk{
			Text:           para,
			NormalizedText: textnorm.Normalize(para),
			Page:           page,
		})
	}
	return chunks
}

// ChunkPages chunks every page in order.
func ChunkPages(pages []Page) []index.Chunk {
	var all []index.Chunk
	for _, p := range pages {
		all = append(all, Chunk(p.Text, p.Number)...)
	}
	return all
}
