package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/corpus"
	"github.com/abhisek/edurag/internal/index"
	"github.com/abhisek/edurag/internal/logging"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or inspect the passage index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Chunk the source pages and build the TF-IDF index",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		out, _ := cmd.Flags().GetString("out")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		defer logger.Sync()
		if out == "" {
			out = cfg.Paths.Index
		}

		pages, err := corpus.LoadPages(source)
		if err != nil {
			return fmt.Errorf("load pages: %w", err)
		}
		chunks := corpus.ChunkPages(pages)

		art, err := index.Build(chunks)
		if errors.Is(err, index.ErrEmptyCorpus) {
			return fmt.Errorf("no indexable text in %s: pages need more than %d characters and paragraphs more than %d",
				source, corpus.MinPageRunes, corpus.MinParagraphRunes)
		}
		if err != nil {
			return err
		}
		if err := index.Save(out, art); err != nil {
			return err
		}
		logger.Info("index built",
			zap.String("dir", out),
			zap.Int("pages", len(pages)),
			zap.Int("chunks", len(art.Chunks)))

		// Cached explanations describe the previous index.
		ctx := cmd.Context()
		if c := openCache(ctx, cfg, logger); c != nil {
			if err := c.InvalidateExplanations(ctx); err != nil {
				logger.Warn("failed to invalidate cached explanations", zap.Error(err))
			}
			c.Close()
		}

		fmt.Printf("Indexed %d chunks from %d pages (vocabulary %d) into %s\n",
			len(art.Chunks), len(pages), art.Vectorizer.Size(), out)
		return nil
	},
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of the persisted index",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		st, ok := rt.retriever.Stats()
		if !ok {
			fmt.Printf("No index found in %s. Run `edurag index build` first.\n", rt.cfg.Paths.Index)
			return nil
		}
		fmt.Printf("Directory:   %s\n", rt.cfg.Paths.Index)
		fmt.Printf("Chunks:      %d\n", st.Chunks)
		fmt.Printf("Pages:       %d\n", st.Pages)
		fmt.Printf("Vocabulary:  %d\n", st.Vocabulary)
		if st.Manifest != nil {
			fmt.Printf("Format:      %s\n", st.Manifest.FormatVersion)
			fmt.Printf("Built:       %s\n", st.Manifest.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	indexBuildCmd.Flags().String("source", "", "Page source: .txt (form-feed separated) or .html (required)")
	indexBuildCmd.Flags().String("out", "", "Output directory (default: paths.index)")
	_ = indexBuildCmd.MarkFlagRequired("source")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatsCmd)
}
