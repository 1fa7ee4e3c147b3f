package cmd

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/edurag/internal/llm"
	"github.com/abhisek/edurag/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect generation calls per purpose and the model catalog",
	Long: `Every generation call is recorded under the purpose that made it:

  explanation    concept explanations built from retrieved pages
  adaptive-quiz  follow-up questions on a student's weak concepts
  mixed-quiz     mixed review questions across concepts
  bank-gen       chapter question banks
  class-advice   the teaching advice in class reports`,
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generation calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		if err := checkPurpose(purpose); err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No generation calls recorded.")
			return nil
		}

		fmt.Fprintf(w, "%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(w, strings.Repeat("─", 100))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(w, "%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one generation call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "ID:        %d\n", e.ID)
		fmt.Fprintf(w, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Purpose:   %s\n", e.Purpose)
		fmt.Fprintf(w, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(w, "Model:     %s\n", e.Model)
		fmt.Fprintf(w, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		if c := llm.LookupCost(e.Model); c != nil {
			fmt.Fprintf(w, "Cost:      %s\n", formatCost(c.Cost(e.InputTokens, e.OutputTokens)))
		}
		fmt.Fprintf(w, "Latency:   %dms\n", e.LatencyMs)
		fmt.Fprintf(w, "Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Fprintf(w, "Error:     %s\n", e.ErrorMessage)
		}

		printSection(w, "PROMPT", e.RequestBody)
		printSection(w, "REPLY", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show calls, failures, tokens and estimated cost per purpose",
	RunE: func(cmd *cobra.Command, args []string) error {
		purpose, _ := cmd.Flags().GetString("purpose")
		if err := checkPurpose(purpose); err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		totals, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		models, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(totals) == 0 {
			fmt.Fprintln(w, "No generation calls recorded.")
			return nil
		}

		rows := usageByPurpose(totals, models)
		if purpose == "" {
			printUsage(w, rows)
			return nil
		}
		for _, r := range rows {
			if r.Purpose == purpose {
				printUsage(w, []purposeUsage{r})
			}
		}
		printModelUsage(w, purpose, models)
		return nil
	},
}

var llmModelsCmd = &cobra.Command{
	Use:   "models [backend]",
	Short: "List the models each backend can be configured with, and their prices",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend := ""
		if len(args) == 1 {
			backend = args[0]
		}
		models := llm.Models(backend)
		if len(models) == 0 {
			return fmt.Errorf("unknown backend %q", backend)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		selected := ""
		if lc, ok := cfg.LLMConfig(); ok {
			selected = lc.SelectedModel()
		}

		printModels(cmd.OutOrStdout(), models, selected)
		return nil
	},
}

// checkPurpose rejects labels no generation call is recorded under. The
// empty label means every purpose.
func checkPurpose(purpose string) error {
	if purpose == "" || slices.Contains(llm.Purposes, purpose) {
		return nil
	}
	return fmt.Errorf("unknown purpose %q (want one of %s)", purpose, strings.Join(llm.Purposes, ", "))
}

// purposeUsage is one row of `llm stats`.
type purposeUsage struct {
	store.PurposeUsage
	Cost     float64
	Unpriced []string // models with no catalog price
}

// usageByPurpose prices each purpose from its per-model rows. Every known
// purpose is listed in report order, even with no calls; other labels
// follow alphabetically.
func usageByPurpose(totals []store.PurposeUsage, models []store.ModelUsage) []purposeUsage {
	rows := make(map[string]*purposeUsage, len(llm.Purposes))
	for _, p := range llm.Purposes {
		rows[p] = &purposeUsage{PurposeUsage: store.PurposeUsage{Purpose: p}}
	}
	var other []string
	for _, t := range totals {
		if _, ok := rows[t.Purpose]; !ok {
			other = append(other, t.Purpose)
		}
		rows[t.Purpose] = &purposeUsage{PurposeUsage: t}
	}
	for _, m := range models {
		r, ok := rows[m.Purpose]
		if !ok {
			continue
		}
		if c := llm.LookupCost(m.Model); c != nil {
			r.Cost += c.Cost(m.InputTokens, m.OutputTokens)
		} else {
			r.Unpriced = append(r.Unpriced, m.Model)
		}
	}

	sort.Strings(other)
	out := make([]purposeUsage, 0, len(rows))
	for _, p := range append(slices.Clone(llm.Purposes), other...) {
		out = append(out, *rows[p])
	}
	return out
}

func printUsage(w io.Writer, rows []purposeUsage) {
	rule := strings.Repeat("─", 92)
	fmt.Fprintf(w, "%-14s  %6s  %6s  %5s  %10s  %10s  %7s  %12s\n",
		"Purpose", "Calls", "Failed", "OK", "Input", "Output", "Avg Ms", "Cost (USD)")
	fmt.Fprintln(w, rule)

	var total purposeUsage
	var unpriced []string
	for _, r := range rows {
		cost := "-"
		if r.Calls > 0 {
			cost = formatCost(r.Cost)
			if len(r.Unpriced) > 0 {
				cost += "*"
			}
		}
		fmt.Fprintf(w, "%-14s  %6d  %6d  %5s  %10d  %10d  %7d  %12s\n",
			r.Purpose, r.Calls, r.Failures, successRate(r.Calls, r.Failures),
			r.InputTokens, r.OutputTokens, r.AvgLatencyMs, cost)

		total.Calls += r.Calls
		total.Failures += r.Failures
		total.InputTokens += r.InputTokens
		total.OutputTokens += r.OutputTokens
		total.Cost += r.Cost
		unpriced = append(unpriced, r.Unpriced...)
	}

	fmt.Fprintln(w, rule)
	cost := formatCost(total.Cost)
	if len(unpriced) > 0 {
		cost += "*"
	}
	fmt.Fprintf(w, "%-14s  %6d  %6d  %5s  %10d  %10d  %7s  %12s\n",
		"TOTAL", total.Calls, total.Failures, successRate(total.Calls, total.Failures),
		total.InputTokens, total.OutputTokens, "", cost)

	if len(unpriced) > 0 {
		slices.Sort(unpriced)
		fmt.Fprintf(w, "\n* no price for: %s\n", strings.Join(slices.Compact(unpriced), ", "))
	}
}

func printModelUsage(w io.Writer, purpose string, models []store.ModelUsage) {
	fmt.Fprintf(w, "\nModels used for %s\n", purpose)
	fmt.Fprintln(w, strings.Repeat("─", 72))
	for _, m := range models {
		if m.Purpose != purpose {
			continue
		}
		cost := "?"
		if c := llm.LookupCost(m.Model); c != nil {
			cost = formatCost(c.Cost(m.InputTokens, m.OutputTokens))
		}
		fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %10s\n",
			truncate(m.Model, 32), m.Calls, m.InputTokens, m.OutputTokens, cost)
	}
}

func printModels(w io.Writer, models []llm.Model, selected string) {
	fmt.Fprintf(w, "  %-11s  %-14s  %-28s  %10s  %10s\n", "Backend", "Alias", "Model", "In $/MTok", "Out $/MTok")
	fmt.Fprintln(w, strings.Repeat("─", 82))
	marked := false
	for _, m := range models {
		mark := " "
		if m.ID == selected {
			mark, marked = "*", true
		}
		alias := m.Alias
		if alias == "" {
			alias = "-"
		}
		fmt.Fprintf(w, "%s %-11s  %-14s  %-28s  %10.2f  %10.2f\n",
			mark, m.Backend, alias, m.ID, m.Cost.InputPerMTok, m.Cost.OutputPerMTok)
	}
	if marked {
		fmt.Fprintln(w, "\n* selected by the current config")
	}
}

func printSection(w io.Writer, title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Fprintln(w)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintln(w, body)
}

func successRate(calls, failures int) string {
	if calls == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", (calls-failures)*100/calls)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show calls for one purpose: "+strings.Join(llm.Purposes, ", "))
	llmStatsCmd.Flags().StringP("purpose", "p", "", "Show one purpose with its per-model breakdown")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
	llmCmd.AddCommand(llmModelsCmd)
}
