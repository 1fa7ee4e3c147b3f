package cmd

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/edurag/internal/quiz"
	"github.com/abhisek/edurag/internal/store"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		in       string
		from, to int
		wantErr  bool
	}{
		{"12-59", 12, 59, false},
		{" 3 - 4 ", 3, 4, false},
		{"7", 7, 7, false},
		{"59-12", 0, 0, true},
		{"0-3", 0, 0, true},
		{"a-b", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		from, to, err := parsePageRange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePageRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if from != tt.from || to != tt.to {
			t.Errorf("parsePageRange(%q) = %d, %d, want %d, %d", tt.in, from, to, tt.from, tt.to)
		}
	}
}

func TestChosenIndex(t *testing.T) {
	q := quiz.Question{Options: [4]string{"3", "4", "5", "6"}, CorrectOption: quiz.OptionB}
	tests := map[string]int{"b": 1, "Option_D": 3, "5": 2, "": -1, "7": -1}
	for given, want := range tests {
		if got := chosenIndex(q, given); got != want {
			t.Errorf("chosenIndex(%q) = %d, want %d", given, got, want)
		}
	}
}

func TestAskQuestions(t *testing.T) {
	qs := []quiz.Question{{ID: "1", Text: "q1"}, {ID: "2", Text: "q2"}, {ID: "3", Text: "q3"}}
	scanner := bufio.NewScanner(strings.NewReader(" a \n\n"))

	got := askQuestions(io.Discard, scanner, qs)
	if len(got) != 1 || got["1"] != "a" {
		t.Errorf("answers = %v, want only 1=a", got)
	}
}

// isolate points config, data and database at a temp dir with no
// provider keys, so commands run offline.
func isolate(t *testing.T) (dataDir, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "EDURAG_LLM_PROVIDER", "EDURAG_REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", dir)
	dataDir = filepath.Join(dir, "data")
	dbPath = filepath.Join(dir, "edurag.db")
	t.Setenv("EDURAG_PATHS_DATA", dataDir)
	t.Setenv("EDURAG_PATHS_DB", dbPath)
	return dataDir, dbPath
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQuizTake_EmptyChapterIsNotRecorded(t *testing.T) {
	dataDir, dbPath := isolate(t)
	if err := (quiz.Bank{Dir: dataDir}).Write(3, nil); err != nil {
		t.Fatalf("write bank: %v", err)
	}

	_, err := execute(t, "quiz", "take", "--student", "Omar", "--chapter", "3")
	if err == nil || !strings.Contains(err.Error(), "no questions in chapter 3") {
		t.Fatalf("error = %v, want no questions in chapter 3", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	attempts, err := st.AnalyticsRepo().Attempts(context.Background(), store.AttemptFilter{})
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("attempts = %d, want none recorded", len(attempts))
	}
}

func TestPlayRound_NoQuestions(t *testing.T) {
	rt := &runtime{}
	scanner := bufio.NewScanner(strings.NewReader(""))
	if _, err := rt.playRound(context.Background(), io.Discard, scanner, "Omar", 2, nil); err == nil {
		t.Fatal("expected error for an empty round")
	}
}
