package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/edurag/internal/analytics"
	"github.com/abhisek/edurag/internal/quiz"
	"github.com/abhisek/edurag/internal/ui/components"
	"github.com/abhisek/edurag/internal/ui/theme"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take chapter quizzes or generate mixed quizzes",
}

var quizTakeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take a chapter quiz in the terminal and record the attempt",
	Long: `Sample questions from a chapter's bank, read answers from stdin, grade them
and record the attempt. Missed concepts are explained from the book, and when a
generation provider is configured an adaptive retry on those concepts is offered.

Answers may be an option letter (a-d) or the literal option text.`,
	RunE: runQuizTake,
}

var quizMixedCmd = &cobra.Command{
	Use:   "mixed",
	Short: "Generate a quiz spanning several chapters and export it as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		chapters, _ := cmd.Flags().GetIntSlice("chapters")
		count, _ := cmd.Flags().GetInt("count")
		out, _ := cmd.Flags().GetString("out")

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if !rt.generator.Available() {
			return errors.New("generation is unavailable: configure an LLM provider")
		}

		qs := rt.generator.MixedQuiz(cmd.Context(), chapters, count)
		if len(qs) == 0 {
			fmt.Println("No questions could be generated for these chapters.")
			return nil
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := quiz.ExportCSV(f, qs); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Wrote %d questions to %s\n", len(qs), out)
		return nil
	},
}

func init() {
	quizTakeCmd.Flags().String("student", "", "Student name (required)")
	quizTakeCmd.Flags().Int("chapter", 0, "Chapter number (required)")
	quizTakeCmd.Flags().Int("count", 0, "Number of questions (default: quiz.size)")
	_ = quizTakeCmd.MarkFlagRequired("student")
	_ = quizTakeCmd.MarkFlagRequired("chapter")

	quizMixedCmd.Flags().IntSlice("chapters", nil, "Chapters to mix, e.g. 1,2 (required)")
	quizMixedCmd.Flags().Int("count", 5, "Number of questions")
	quizMixedCmd.Flags().String("out", "mixed_quiz.csv", "CSV output file")
	_ = quizMixedCmd.MarkFlagRequired("chapters")

	quizCmd.AddCommand(quizTakeCmd)
	quizCmd.AddCommand(quizMixedCmd)
}

func runQuizTake(cmd *cobra.Command, args []string) error {
	student, _ := cmd.Flags().GetString("student")
	chapter, _ := cmd.Flags().GetInt("chapter")
	count, _ := cmd.Flags().GetInt("count")

	student = strings.TrimSpace(student)
	if student == "" {
		return errors.New("student name is required")
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()
	if count <= 0 {
		count = rt.cfg.Quiz.Size
	}

	questions, err := rt.bank.Load(chapter)
	if errors.Is(err, quiz.ErrBankNotFound) {
		return fmt.Errorf("no question bank for chapter %d in %s", chapter, rt.bank.Dir)
	}
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions in chapter %d", chapter)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	fmt.Fprintf(out, "%s\n\n", theme.Title.Render(fmt.Sprintf("Chapter %d quiz for %s", chapter, student)))
	grade, err := rt.playRound(ctx, out, scanner, student, chapter, quiz.Sample(questions, count, nil))
	if err != nil {
		return err
	}
	if len(grade.WeakConcepts) == 0 {
		return nil
	}

	fmt.Fprintln(out, theme.Heading.Render("Review"))
	for _, e := range rt.explainer.ExplainAll(ctx, grade.WeakConcepts) {
		fmt.Fprintln(out, theme.Body.Render(e.Concept))
		fmt.Fprintln(out, e.Text)
		if e.Citation != "" {
			fmt.Fprintln(out, theme.Hint.Render("Source pages: "+e.Citation))
		}
		fmt.Fprintln(out)
	}

	if !rt.generator.Available() {
		return nil
	}
	fmt.Fprint(out, "Try an adaptive quiz on these concepts? [y/N] ")
	if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
		return nil
	}

	fmt.Fprintln(out, "Generating questions...")
	retry := rt.generator.AdaptiveQuiz(ctx, chapter, grade.WeakConcepts, rt.cfg.Quiz.AdaptiveSize)
	if len(retry) == 0 {
		fmt.Fprintln(out, "Could not generate an adaptive quiz right now.")
		return nil
	}
	fmt.Fprintln(out)
	_, err = rt.playRound(ctx, out, scanner, student, chapter, retry)
	return err
}

// playRound asks every question, grades the answers, records the attempt
// and prints the outcome.
func (rt *runtime) playRound(ctx context.Context, out io.Writer, scanner *bufio.Scanner, student string, chapter int, questions []quiz.Question) (quiz.GradeSummary, error) {
	if len(questions) == 0 {
		return quiz.GradeSummary{}, fmt.Errorf("no questions in chapter %d", chapter)
	}
	start := time.Now()
	answers := askQuestions(out, scanner, questions)
	elapsed := time.Since(start).Seconds()

	grade := quiz.Grade(questions, answers)
	if !grade.Gradeable {
		return grade, errors.New("quiz has no answer key")
	}

	repo := rt.store.AnalyticsRepo()
	number, err := repo.NextAttemptNumber(ctx, student, chapter)
	if err != nil {
		return grade, fmt.Errorf("number attempt: %w", err)
	}
	attempt, events := analytics.NewAttempt(student, chapter, number, grade, elapsed)
	summary, err := repo.RecordAttempt(ctx, attempt, events)
	if err != nil {
		return grade, fmt.Errorf("record attempt: %w", err)
	}
	passed := grade.Passed(rt.cfg.Analytics.PassMark)
	rt.metrics.ObserveAttempt(passed)

	fmt.Fprintln(out, theme.Heading.Render("Results"))
	for i, d := range grade.Details {
		if d.Correct {
			fmt.Fprintf(out, "%s %s\n", theme.Correct.Render("✓"), d.Question)
			continue
		}
		q := questions[i]
		fmt.Fprintln(out, theme.Incorrect.Render("✗"))
		fmt.Fprint(out, components.NewMultiChoice(q.Text, q.Options).Graded(chosenIndex(q, d.Given), q.CorrectOption.Index()).View())
	}

	verdict := theme.Incorrect.Render("not passed")
	if passed {
		verdict = theme.Correct.Render("passed")
	}
	fmt.Fprintf(out, "\nScore: %d/%d (%.1f%%), %s. Attempt %d.\n", grade.Correct, grade.Total, grade.Accuracy, verdict, number)
	fmt.Fprintf(out, "Best %.1f%%, change since first attempt %+.1f points.\n", summary.BestAccuracy, summary.ImprovementPct)
	if risk := analytics.Classify(summary); risk != nil {
		style := theme.Declining
		if risk.Tier == analytics.TierCritical {
			style = theme.Critical
		}
		fmt.Fprintln(out, style.Render("At risk: "+risk.Reason()))
	}
	fmt.Fprintln(out)
	return grade, nil
}

// chosenIndex maps an answer given as a letter or as option text to its
// option index, or -1.
func chosenIndex(q quiz.Question, given string) int {
	if o, ok := quiz.ParseOption(given); ok {
		return o.Index()
	}
	for i, opt := range q.Options {
		if given != "" && strings.TrimSpace(opt) == given {
			return i
		}
	}
	return -1
}

// askQuestions reads one answer per question. Input ending early leaves
// the remaining questions unanswered.
func askQuestions(out io.Writer, scanner *bufio.Scanner, questions []quiz.Question) map[string]string {
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		fmt.Fprintf(out, "── Question %d/%d ──\n", i+1, len(questions))
		fmt.Fprint(out, components.NewMultiChoice(q.Text, q.Options).View())

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			answers[q.ID] = answer
		}
		fmt.Fprintln(out)
	}
	return answers
}
