package explain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/abhisek/edurag/internal/index"
	"github.com/abhisek/edurag/internal/llm"
)

func passages() []index.Chunk {
	return []index.Chunk{
		{Text: strings.Repeat("Fractions name parts of a whole. ", 20), Page: 14},
		{Text: "A fraction has a numerator and a denominator.", Page: 12},
		{Text: "Equivalent fractions have the same value.", Page: 14},
	}
}

func TestExplain_NotFound(t *testing.T) {
	c := NewComposer(nil, nil)
	got := c.Explain(context.Background(), "quantum", nil)
	if got.Text != NotFoundText || got.Citation != "" || got.Source != SourceNotFound {
		t.Errorf("Explain(no passages) = %+v", got)
	}
}

func TestExplain_Fallback(t *testing.T) {
	c := NewComposer(nil, nil)
	got := c.Explain(context.Background(), "fractions", passages())

	if got.Citation != "12, 14" {
		t.Errorf("citation = %q, want %q", got.Citation, "12, 14")
	}
	if got.Source != SourceFallback {
		t.Errorf("source = %q, want fallback", got.Source)
	}
	if !strings.HasPrefix(got.Text, "See pages: 12, 14\nExcerpt: Fractions name") {
		t.Errorf("text = %q", got.Text)
	}
	excerpt := strings.TrimSuffix(strings.SplitN(got.Text, "Excerpt: ", 2)[1], "...")
	if n := utf8.RuneCountInString(excerpt); n > ExcerptRunes {
		t.Errorf("excerpt has %d runes, want <= %d", n, ExcerptRunes)
	}
}

func TestExplain_Generated(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("  A fraction is a part of a whole.\n"))
	c := NewComposer(mock, nil)

	got := c.Explain(context.Background(), "fractions", passages())
	if got.Text != "A fraction is a part of a whole." || got.Source != SourceGenerated {
		t.Errorf("Explain = %+v", got)
	}
	if got.Citation != "12, 14" {
		t.Errorf("citation = %q", got.Citation)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("calls = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Temperature != 0.7 {
		t.Errorf("temperature = %f, want 0.7", req.Temperature)
	}
	prompt := req.Messages[0].Content
	if !strings.Contains(prompt, `"fractions"`) {
		t.Errorf("prompt does not name the concept: %q", prompt)
	}
	body := strings.SplitN(prompt, "Text:\n", 2)[1]
	if n := utf8.RuneCountInString(strings.TrimSpace(body)); n > ContextRunes {
		t.Errorf("context has %d runes, want <= %d", n, ContextRunes)
	}
}

func TestExplain_GenerationError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.Failure{Kind: llm.FailRateLimited, Backend: "gemini", Err: errors.New("slow down")}})
	c := NewComposer(mock, nil)

	got := c.Explain(context.Background(), "fractions", passages())
	if got.Source != SourceError {
		t.Errorf("source = %q, want error", got.Source)
	}
	if !strings.Contains(got.Text, "slow down") {
		t.Errorf("text does not carry the error: %q", got.Text)
	}
	if got.Citation != "12, 14" {
		t.Errorf("citation = %q", got.Citation)
	}
}

type fakeSearcher struct {
	results []index.Chunk
	calls   int
	lastK   int
}

func (f *fakeSearcher) Search(_ string, k int) []index.Chunk {
	f.calls++
	f.lastK = k
	return f.results
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]Explanation
}

func (c *mapCache) GetExplanation(_ context.Context, key string) (*Explanation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	return &e, true
}

func (c *mapCache) SetExplanation(_ context.Context, key string, e Explanation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = e
}

func TestService_CachesExplanations(t *testing.T) {
	s := &fakeSearcher{results: passages()}
	cache := &mapCache{m: map[string]Explanation{}}
	svc := NewService(s, NewComposer(nil, nil), nil, WithCache(cache), WithTopK(3))

	first := svc.Explain(context.Background(), "Fractions")
	second := svc.Explain(context.Background(), "  fractions ")

	if s.calls != 1 {
		t.Errorf("searcher calls = %d, want 1", s.calls)
	}
	if s.lastK != 3 {
		t.Errorf("topK = %d, want 3", s.lastK)
	}
	if first.Text != second.Text {
		t.Errorf("cached explanation differs: %q vs %q", first.Text, second.Text)
	}
}

func TestService_DoesNotCacheMisses(t *testing.T) {
	s := &fakeSearcher{}
	cache := &mapCache{m: map[string]Explanation{}}
	svc := NewService(s, NewComposer(nil, nil), nil, WithCache(cache))

	svc.Explain(context.Background(), "nothing")
	svc.Explain(context.Background(), "nothing")

	if s.calls != 2 {
		t.Errorf("searcher calls = %d, want 2", s.calls)
	}
	if len(cache.m) != 0 {
		t.Errorf("cache holds %d entries, want 0", len(cache.m))
	}
}

func TestCacheKey(t *testing.T) {
	if CacheKey("أعداد  أولية") != CacheKey("اعداد أولية") {
		t.Error("hamza variants should share a cache key")
	}
	if CacheKey("roots") == CacheKey("fractions") {
		t.Error("different concepts share a key")
	}
}
