package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/mockview/internal/config"
	"github.com/abhisek/mockview/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mockview",
	Short: "Adaptive mock technical interviewer",
	Long: "mockview runs mock technical interviews that score each answer, adapt the question\n" +
		"difficulty as you go and finish with a written evaluation.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MOCKVIEW_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the --config file and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (db key or MOCKVIEW_DB), then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// openStore resolves the database path and opens it.
func openStore(cmd *cobra.Command, cfg *config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
