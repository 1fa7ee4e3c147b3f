package quiz

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrBankNotFound is returned when a chapter has no question bank on disk.
var ErrBankNotFound = errors.New("quiz: question bank not found")

var (
	questionHeader = []string{"question_id", "question", "option_a", "option_b", "option_c", "option_d", "concept"}
	answerHeader   = []string{"question_id", "correct_option"}

	bankFilePattern = regexp.MustCompile(`^questions_ch(\d+)\.csv$`)
)

// Bank is a directory of per-chapter question banks. Each chapter is stored
// as two files joined on question_id: questions_chN.csv holds the question
// bodies and answers_chN.csv holds the answer key.
type Bank struct {
	Dir string
}

// QuestionsPath returns the question file of chapter.
func (b Bank) QuestionsPath(chapter int) string {
	return filepath.Join(b.Dir, fmt.Sprintf("questions_ch%d.csv", chapter))
}

// AnswersPath returns the answer-key file of chapter.
func (b Bank) AnswersPath(chapter int) string {
	return filepath.Join(b.Dir, fmt.Sprintf("answers_ch%d.csv", chapter))
}

// Chapters lists the chapters that have a question file, ascending.
func (b Bank) Chapters() ([]int, error) {
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list bank dir: %w", err)
	}
	var chapters []int
	for _, e := range entries {
		m := bankFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			chapters = append(chapters, n)
		}
	}
	sort.Ints(chapters)
	return chapters, nil
}

// Load reads the bank of chapter with its answer key joined in. Questions
// whose ID has no answer row are dropped. A correct_option column in the
// question file is ignored.
func (b Bank) Load(chapter int) ([]Question, error) {
	qRows, err := readCSV(b.QuestionsPath(chapter))
	if err != nil {
		return nil, err
	}
	aRows, err := readCSV(b.AnswersPath(chapter))
	if err != nil {
		return nil, err
	}

	key := make(map[string]Option, len(aRows))
	for _, row := range aRows {
		if o, ok := ParseOption(row["correct_option"]); ok {
			key[strings.TrimSpace(row["question_id"])] = o
		}
	}

	var out []Question
	for _, row := range qRows {
		id := strings.TrimSpace(row["question_id"])
		o, ok := key[id]
		if !ok {
			continue
		}
		out = append(out, Question{
			ID:   id,
			Text: row["question"],
			Options: [4]string{
				row["option_a"], row["option_b"], row["option_c"], row["option_d"],
			},
			Concept:       strings.TrimSpace(row["concept"]),
			CorrectOption: o,
		})
	}
	return out, nil
}

// LoadConcepts returns the distinct concepts of chapter's bank without
// reading the answer key.
func (b Bank) LoadConcepts(chapter int) ([]string, error) {
	rows, err := readCSV(b.QuestionsPath(chapter))
	if err != nil {
		return nil, err
	}
	qs := make([]Question, len(rows))
	for i, row := range rows {
		qs[i] = Question{Concept: strings.TrimSpace(row["concept"])}
	}
	return Concepts(qs), nil
}

// Write stores questions as chapter's bank, sorted by ID, replacing any
// existing files.
func (b Bank) Write(chapter int, questions []Question) error {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return fmt.Errorf("create bank dir: %w", err)
	}

	sorted := make([]Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool { return lessID(sorted[i].ID, sorted[j].ID) })

	qRows := [][]string{questionHeader}
	aRows := [][]string{answerHeader}
	for _, q := range sorted {
		qRows = append(qRows, []string{q.ID, q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.Concept})
		aRows = append(aRows, []string{q.ID, string(q.CorrectOption)})
	}

	if err := writeCSV(b.QuestionsPath(chapter), qRows); err != nil {
		return err
	}
	return writeCSV(b.AnswersPath(chapter), aRows)
}

// ExportCSV writes questions with their keys as a single CSV table, in the
// given order.
func ExportCSV(w io.Writer, questions []Question) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, questionHeader...), "correct_option")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, q := range questions {
		row := []string{q.ID, q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.Concept, string(q.CorrectOption)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// lessID orders numeric IDs numerically and everything else lexically.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// Sample returns n questions chosen without replacement, or all of them in
// random order when n is larger. A nil rng uses the global source.
func Sample(questions []Question, n int, rng *rand.Rand) []Question {
	if n <= 0 || len(questions) == 0 {
		return nil
	}
	if n > len(questions) {
		n = len(questions)
	}
	perm := rand.Perm
	if rng != nil {
		perm = rng.Perm
	}
	out := make([]Question, 0, n)
	for _, i := range perm(len(questions))[:n] {
		out = append(out, questions[i])
	}
	return out
}

// readCSV reads a headered CSV file into one map per row keyed by column name.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBankNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
