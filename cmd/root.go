package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/edurag/internal/config"
	"github.com/abhisek/edurag/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "edurag",
	Short: "Concept retrieval and mastery analytics for a course book",
	Long: `edurag indexes a course book, answers concept questions with page citations,
runs chapter quizzes and tracks how each student is doing over time.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: edurag.yaml in . or ./config)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides paths.db)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies the persistent flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Paths.DB = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.Log.Level = l
	}
	return cfg, nil
}

// resolveDBPath returns the database path from config (which already holds
// the --db flag and EDURAG_PATHS_DB), then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.Paths.DB != "" {
		return cfg.Paths.DB, store.EnsureDir(cfg.Paths.DB)
	}
	return store.DefaultDBPath()
}

// openStore loads config and opens the database only.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
