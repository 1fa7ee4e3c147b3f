package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/edurag/internal/analytics"
	"github.com/abhisek/edurag/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats [student]",
	Short: "Show student progress summaries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		repo := s.AnalyticsRepo()

		if len(args) == 1 {
			return printStudent(cmd, repo, args[0])
		}

		summaries, err := repo.Summaries(ctx)
		if err != nil {
			return fmt.Errorf("query summaries: %w", err)
		}
		if len(summaries) == 0 {
			fmt.Println("No attempts recorded yet.")
			return nil
		}

		fmt.Printf("%-24s  %8s  %8s  %8s  %8s  %8s  %s\n",
			"Student", "Attempts", "Best", "Last", "Change", "Avg s", "Risk")
		fmt.Println(strings.Repeat("─", 90))
		for _, su := range summaries {
			risk := ""
			if f := analytics.Classify(su); f != nil {
				risk = string(f.Tier)
			}
			fmt.Printf("%-24s  %8d  %7.1f%%  %7.1f%%  %+8.1f  %8.1f  %s\n",
				truncate(su.Student, 24), su.Attempts, su.BestAccuracy, su.LastAccuracy,
				su.ImprovementPct, su.AvgTimeSeconds, risk)
		}
		return nil
	},
}

func printStudent(cmd *cobra.Command, repo store.AnalyticsRepo, student string) error {
	ctx := cmd.Context()
	su, err := repo.Summary(ctx, student)
	if err != nil {
		return fmt.Errorf("query summary: %w", err)
	}
	if su == nil {
		return fmt.Errorf("no attempts recorded for %q", student)
	}

	fmt.Printf("Student:   %s\n", su.Student)
	fmt.Printf("Attempts:  %d\n", su.Attempts)
	fmt.Printf("Best:      %.1f%%\n", su.BestAccuracy)
	fmt.Printf("Last:      %.1f%%\n", su.LastAccuracy)
	fmt.Printf("Change:    %+.1f points\n", su.ImprovementPct)
	fmt.Printf("Avg time:  %.1fs\n", su.AvgTimeSeconds)
	if f := analytics.Classify(*su); f != nil {
		fmt.Printf("Risk:      %s (%s)\n", f.Tier, f.Reason())
	}

	attempts, err := repo.Attempts(ctx, store.AttemptFilter{Student: student})
	if err != nil {
		return fmt.Errorf("query attempts: %w", err)
	}
	fmt.Println()
	fmt.Printf("%-8s  %-8s  %-8s  %-10s  %s\n", "Chapter", "Attempt", "Score", "Accuracy", "Weak concepts")
	fmt.Println(strings.Repeat("─", 72))
	for _, a := range attempts {
		fmt.Printf("%-8d  %-8d  %-8s  %9.1f%%  %s\n",
			a.Chapter, a.AttemptNumber, fmt.Sprintf("%d/%d", a.Correct, a.Total), a.Accuracy,
			strings.Join(a.WeakConcepts, ", "))
	}
	return nil
}
