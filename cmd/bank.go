package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/edurag/internal/adaptive"
	"github.com/abhisek/edurag/internal/corpus"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage chapter question banks",
}

var bankGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a chapter question bank from a page range of the book",
	RunE: func(cmd *cobra.Command, args []string) error {
		chapter, _ := cmd.Flags().GetInt("chapter")
		pageRange, _ := cmd.Flags().GetString("pages")
		count, _ := cmd.Flags().GetInt("count")
		source, _ := cmd.Flags().GetString("source")

		from, to, err := parsePageRange(pageRange)
		if err != nil {
			return err
		}
		if chapter < 1 {
			return fmt.Errorf("invalid chapter %d", chapter)
		}

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		pages, err := corpus.LoadPages(source)
		if err != nil {
			return fmt.Errorf("load pages: %w", err)
		}

		fmt.Printf("Generating %d questions for chapter %d from pages %d-%d...\n", count, chapter, from, to)
		gen := adaptive.NewBankGenerator(rt.drafter(), rt.bank, rt.logger)
		qs, err := gen.Generate(cmd.Context(), chapter, pages, from, to, count)
		if errors.Is(err, adaptive.ErrNoPages) {
			return fmt.Errorf("no text on pages %d-%d of %s", from, to, source)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %d questions to %s and %s\n", len(qs), rt.bank.QuestionsPath(chapter), rt.bank.AnswersPath(chapter))
		return nil
	},
}

// parsePageRange parses "12-59" or a single page "12".
func parsePageRange(s string) (from, to int, err error) {
	lo, hi, found := strings.Cut(strings.TrimSpace(s), "-")
	if from, err = strconv.Atoi(strings.TrimSpace(lo)); err != nil {
		return 0, 0, fmt.Errorf("invalid page range %q", s)
	}
	to = from
	if found {
		if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
			return 0, 0, fmt.Errorf("invalid page range %q", s)
		}
	}
	if from < 1 || to < from {
		return 0, 0, fmt.Errorf("invalid page range %q", s)
	}
	return from, to, nil
}

func init() {
	bankGenerateCmd.Flags().Int("chapter", 0, "Chapter number (required)")
	bankGenerateCmd.Flags().String("pages", "", "Inclusive page range, e.g. 12-59 (required)")
	bankGenerateCmd.Flags().Int("count", 15, "Number of questions")
	bankGenerateCmd.Flags().String("source", "", "Page source: .txt or .html (required)")
	_ = bankGenerateCmd.MarkFlagRequired("chapter")
	_ = bankGenerateCmd.MarkFlagRequired("pages")
	_ = bankGenerateCmd.MarkFlagRequired("source")

	bankCmd.AddCommand(bankGenerateCmd)
}
