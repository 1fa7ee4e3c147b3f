package index

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/edurag/internal/textnorm"
)

func mkChunk(text string, page int) Chunk {
	return Chunk{Text: text, NormalizedText: textnorm.Normalize(text), Page: page}
}

func sampleChunks() []Chunk {
	return []Chunk{
		mkChunk("A fraction represents a part of a whole, written as numerator over denominator.", 12),
		mkChunk("Square roots undo squaring: the square root of 49 is 7 because 7 times 7 is 49.", 15),
		mkChunk("To add fractions with unlike denominators, first find a common denominator.", 13),
		mkChunk("الكسور العشرية تكتب باستخدام الفاصلة العشرية بين الجزء الصحيح والجزء الكسري.", 20),
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	_, err := Build(nil)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Build(nil) error = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuild_RowsMatchChunks(t *testing.T) {
	chunks := sampleChunks()
	a, err := Build(chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(a.Matrix.Rows) != len(chunks) {
		t.Errorf("rows = %d, want %d", len(a.Matrix.Rows), len(chunks))
	}
	if len(a.Chunks) != len(chunks) {
		t.Errorf("chunks = %d, want %d", len(a.Chunks), len(chunks))
	}
	for i, row := range a.Matrix.Rows {
		if n := row.Norm(); math.Abs(n-1) > 1e-9 {
			t.Errorf("row %d norm = %f, want 1", i, n)
		}
	}
}

func TestFit_IDF(t *testing.T) {
	v := Fit([]string{"apple banana", "apple cherry"})

	// apple appears in both docs: ln(3/3)+1 = 1.
	if got := v.IDF[v.Vocabulary["apple"]]; math.Abs(got-1) > 1e-12 {
		t.Errorf("idf(apple) = %f, want 1", got)
	}
	// banana appears in one: ln(3/2)+1.
	want := math.Log(1.5) + 1
	if got := v.IDF[v.Vocabulary["banana"]]; math.Abs(got-want) > 1e-12 {
		t.Errorf("idf(banana) = %f, want %f", got, want)
	}
	// Columns follow sorted term order.
	if v.Vocabulary["apple"] != 0 || v.Vocabulary["banana"] != 1 || v.Vocabulary["cherry"] != 2 {
		t.Errorf("vocabulary = %v, want sorted columns", v.Vocabulary)
	}
}

func TestTransform_UnknownTermsIgnored(t *testing.T) {
	v := Fit([]string{"apple banana"})
	if vec := v.Transform("zebra giraffe"); !vec.IsZero() {
		t.Errorf("Transform(unknown) = %+v, want zero vector", vec)
	}
}

func TestSparseVectorDot(t *testing.T) {
	a := SparseVector{Indices: []int{0, 2, 5}, Values: []float64{1, 2, 3}}
	b := SparseVector{Indices: []int{2, 3, 5}, Values: []float64{4, 1, 2}}
	if got := a.Dot(b); got != 14 {
		t.Errorf("Dot = %f, want 14", got)
	}
}

func TestSearch_SelfQueryRanksFirst(t *testing.T) {
	a, err := Build(sampleChunks())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := NewRetrieverFromArtifact(a)

	for i, c := range a.Chunks {
		got := r.Search(c.Text, 1)
		if len(got) != 1 {
			t.Fatalf("chunk %d: got %d results, want 1", i, len(got))
		}
		if got[0].Text != c.Text {
			t.Errorf("chunk %d: top result %q, want %q", i, got[0].Text, c.Text)
		}
	}
}

func TestSearch_Bounds(t *testing.T) {
	a, err := Build(sampleChunks())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := NewRetrieverFromArtifact(a)

	tests := []struct {
		name  string
		query string
		k     int
	}{
		{"single", "fractions", 1},
		{"top two", "common denominator fraction", 2},
		{"more than corpus", "fraction square root denominator", 10},
		{"arabic with diacritics", "الكُسُور العَشْرِيَّة", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.SearchScored(tt.query, tt.k)
			if len(got) == 0 {
				t.Fatal("expected at least one match")
			}
			if len(got) > tt.k {
				t.Errorf("got %d results, want <= %d", len(got), tt.k)
			}
			for i, m := range got {
				if m.Score <= DefaultMinScore {
					t.Errorf("result %d score %f not above floor", i, m.Score)
				}
				if i > 0 && m.Score > got[i-1].Score {
					t.Errorf("results not sorted: %f after %f", m.Score, got[i-1].Score)
				}
			}
		})
	}
}

func TestSearch_EmptyCases(t *testing.T) {
	a, err := Build(sampleChunks())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := NewRetrieverFromArtifact(a)

	if got := r.Search("quantum chromodynamics", 3); got != nil {
		t.Errorf("unrelated query returned %d results", len(got))
	}
	if got := r.Search("?!.,", 3); got != nil {
		t.Errorf("punctuation-only query returned %d results", len(got))
	}
	if got := r.Search("fraction", 0); got != nil {
		t.Errorf("topK=0 returned %d results", len(got))
	}
}

func TestSearch_TiesKeepChunkOrder(t *testing.T) {
	a, err := Build([]Chunk{
		mkChunk("prime numbers have exactly two divisors", 3),
		mkChunk("prime numbers have exactly two divisors", 4),
		mkChunk("composite numbers have more divisors", 5),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := NewRetrieverFromArtifact(a)

	got := r.Search("prime numbers", 2)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Page != 3 || got[1].Page != 4 {
		t.Errorf("pages = [%d %d], want [3 4]", got[0].Page, got[1].Page)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	a, err := Build(sampleChunks())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := Save(dir, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := NewRetriever(dir)
	stats, ok := r.Stats()
	if !ok {
		t.Fatal("expected artifact to load")
	}
	if stats.Chunks != 4 {
		t.Errorf("chunks = %d, want 4", stats.Chunks)
	}
	if stats.Pages != 4 {
		t.Errorf("pages = %d, want 4", stats.Pages)
	}
	if stats.Manifest == nil || stats.Manifest.FormatVersion != FormatVersion {
		t.Errorf("manifest = %+v, want format %s", stats.Manifest, FormatVersion)
	}

	got := r.Search("square root", 1)
	if len(got) != 1 || got[0].Page != 15 {
		t.Errorf("Search(square root) = %+v, want page 15", got)
	}
}

func TestSave_ReplacesPreviousArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	first, _ := Build(sampleChunks()[:1])
	second, _ := Build(sampleChunks())

	if err := Save(dir, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if err := Save(dir, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	a, _, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(a.Chunks) != 4 {
		t.Errorf("chunks = %d, want 4", len(a.Chunks))
	}

	entries, err := os.ReadDir(filepath.Dir(dir))
	if err != nil {
		t.Fatalf("read parent: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("parent has %d entries, want only the artifact dir", len(entries))
	}
}

func TestLoad_Absent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{"missing dir", func(t *testing.T, dir string) {}},
		{"missing part", func(t *testing.T, dir string) {
			a, _ := Build(sampleChunks())
			if err := Save(dir, a); err != nil {
				t.Fatal(err)
			}
			os.Remove(filepath.Join(dir, matrixFile))
		}},
		{"incompatible format", func(t *testing.T, dir string) {
			os.MkdirAll(dir, 0o755)
			os.WriteFile(filepath.Join(dir, manifestFile), []byte(`{"format_version":"v2.0.0"}`), 0o644)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "index")
			tt.setup(t, dir)

			_, _, err := Load(dir)
			if !errors.Is(err, ErrArtifactAbsent) {
				t.Errorf("Load error = %v, want ErrArtifactAbsent", err)
			}

			r := NewRetriever(dir)
			if got := r.Search("fraction", 2); got != nil {
				t.Errorf("Search on absent artifact returned %d results", len(got))
			}
			if r.Available() {
				t.Error("Available() = true for absent artifact")
			}
		})
	}
}

type countingObserver struct {
	calls, hits int
}

func (o *countingObserver) ObserveSearch(_ time.Duration, hits int) {
	o.calls++
	o.hits += hits
}

func TestRetriever_Observer(t *testing.T) {
	a, _ := Build(sampleChunks())
	obs := &countingObserver{}
	r := NewRetrieverFromArtifact(a, WithObserver(obs))

	r.Search("fraction", 1)
	r.Search("nothing relevant here", 1)

	if obs.calls != 2 {
		t.Errorf("observer calls = %d, want 2", obs.calls)
	}
	if obs.hits != 1 {
		t.Errorf("observer hits = %d, want 1", obs.hits)
	}
}

func TestLoad_IncompatibleFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	a, err := Build(sampleChunks())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := Save(dir, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	manifest := `{"format_version":"v2.0.0","chunks":4,"vocabulary":1}`
	if err := os.WriteFile(filepath.Join(dir, manifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Load(dir); !errors.Is(err, ErrArtifactAbsent) {
		t.Fatalf("Load error = %v, want ErrArtifactAbsent", err)
	}
	if r := NewRetriever(dir); r.Available() {
		t.Error("retriever available over an incompatible artifact")
	}
}
