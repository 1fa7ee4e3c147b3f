package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/edurag/internal/ui/theme"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the passages most relevant to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, _ := cmd.Flags().GetInt("k")

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		if k <= 0 {
			k = rt.cfg.Retrieval.TopK
		}

		if !rt.retriever.Available() {
			fmt.Println("No index available. Run `edurag index build` first.")
			return nil
		}

		matches := rt.retriever.SearchScored(strings.Join(args, " "), k)
		if len(matches) == 0 {
			fmt.Println("No matching passages.")
			return nil
		}
		for i, m := range matches {
			fmt.Println(theme.Heading.Render(fmt.Sprintf("%d. Page %d", i+1, m.Page)) +
				theme.Hint.Render(fmt.Sprintf("  score %.3f", m.Score)))
			fmt.Println(m.Text)
			fmt.Println()
		}
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <concept>",
	Short: "Explain a concept from the book with page citations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		e := rt.explainer.Explain(cmd.Context(), strings.Join(args, " "))
		fmt.Println(theme.Heading.Render(e.Concept))
		fmt.Println(e.Text)
		if e.Citation != "" {
			fmt.Println(theme.Hint.Render("Source pages: " + e.Citation))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntP("k", "k", 0, "Number of passages (default: retrieval.top_k)")
}
