package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/edurag/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		addr := rt.cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}

		srv := server.New(server.Config{
			Addr:         addr,
			CORSOrigins:  rt.cfg.Server.CORSOrigins,
			TopK:         rt.cfg.Retrieval.TopK,
			QuizSize:     rt.cfg.Quiz.Size,
			AdaptiveSize: rt.cfg.Quiz.AdaptiveSize,
			PassMark:     rt.cfg.Analytics.PassMark,
			Threshold:    rt.cfg.Analytics.MasteryThreshold,
		}, server.Deps{
			Retriever: rt.retriever,
			Explainer: rt.explainer,
			Generator: rt.generator,
			Bank:      rt.bank,
			Analytics: rt.store.AnalyticsRepo(),
			Metrics:   rt.metrics,
			Logger:    rt.logger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr)")
}
