package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnsupportedSource is returned by LoadPages for unknown file types.
var ErrUnsupportedSource = errors.New("corpus: unsupported page source")

const formFeed = "\f"

// LoadPages reads the page texts of an already-extracted document.
//
// Plain text files hold one page per form-feed separated segment, the layout
// pdftotext produces. HTML files hold one page per element carrying a
// "page" class or a data-page attribute; a document with neither is a single
// page.
func LoadPages(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pages: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return splitText(string(data)), nil
	case ".html", ".htm":
		return parseHTML(string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, filepath.Ext(path))
	}
}

func splitText(text string) []Page {
	segments := strings.Split(text, formFeed)
	pages := make([]Page, 0, len(segments))
	for i, seg := range segments {
		pages = append(pages, Page{Number: i + 1, Text: seg})
	}
	// pdftotext terminates the last page with a form feed too.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1].Text) == "" {
		pages = pages[:n-1]
	}
	return pages
}

func parseHTML(html string) ([]Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, nav, header, footer").Remove()

	sel := doc.Find(".page, [data-page]")
	if sel.Length() == 0 {
		return []Page{{Number: 1, Text: pageText(doc.Find("body"))}}, nil
	}

	var pages []Page
	sel.Each(func(i int, s *goquery.Selection) {
		number := i + 1
		if v, ok := s.Attr("data-page"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				number = n
			}
		}
		pages = append(pages, Page{Number: number, Text: pageText(s)})
	})
	return pages, nil
}

// pageText joins block-level elements with blank lines so the chunker sees
// one paragraph per block.
func pageText(s *goquery.Selection) string {
	var paras []string
	s.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, b *goquery.Selection) {
		if t := strings.TrimSpace(b.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	if len(paras) == 0 {
		return strings.TrimSpace(s.Text())
	}
	return strings.Join(paras, paragraphSep)
}
