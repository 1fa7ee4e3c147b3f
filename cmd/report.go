package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/edurag/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the class mastery report",
	RunE: func(cmd *cobra.Command, args []string) error {
		chapters, _ := cmd.Flags().GetIntSlice("chapters")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		withAdvice, _ := cmd.Flags().GetBool("advice")
		asJSON, _ := cmd.Flags().GetBool("json")
		width, _ := cmd.Flags().GetInt("width")

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		if !cmd.Flags().Changed("threshold") {
			threshold = rt.cfg.Analytics.MasteryThreshold
		}

		ctx := cmd.Context()
		r, err := report.Load(ctx, rt.store.AnalyticsRepo(), report.Options{Chapters: chapters, Threshold: threshold})
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}

		if r.KPIs.Students == 0 {
			fmt.Println("No attempts recorded yet.")
			return nil
		}

		var advice string
		if withAdvice {
			advice = report.NewAdvisor(rt.provider, rt.logger).Advise(ctx, r.KPIs)
		}
		fmt.Println(report.Render(r, width, advice))
		return nil
	},
}

func init() {
	reportCmd.Flags().IntSlice("chapters", nil, "Limit concept statistics to these chapters, e.g. 1,2")
	reportCmd.Flags().Float64("threshold", 50, "Flag concepts whose success rate is below this percentage (default: analytics.mastery_threshold)")
	reportCmd.Flags().Bool("advice", false, "Ask the generation provider for three teaching tips")
	reportCmd.Flags().Bool("json", false, "Print the report as JSON")
	reportCmd.Flags().Int("width", 100, "Terminal width")
}
