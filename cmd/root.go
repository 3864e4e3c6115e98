package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/paperz/internal/config"
	"github.com/abhisek/paperz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "paperz",
	Short: "Take exam papers in the terminal",
	Long:  "Paperz is a terminal client for taking exam papers: answer exercises, mark them for review and see your score.",
	RunE: func(cmd *cobra.Command, args []string) error {
		paperID, _ := cmd.Flags().GetString("paper")
		return runApp(cmd, paperID)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PAPERZ_DB env var)")
	rootCmd.PersistentFlags().Bool("local", false, "Use the embedded SQLite backend instead of the paper service")
	rootCmd.Flags().StringP("paper", "p", "", "Paper to open (without it, --local shows the library)")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(papersCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("local") {
		cfg.Service.Local, _ = cmd.Flags().GetBool("local")
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then database.path from the config, then PAPERZ_DB env var, then the
// default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, store.EnsureDir(cfg.Database.Path)
	}
	return store.DefaultDBPath()
}

// openStore loads the config and opens the database it points at.
func openStore(cmd *cobra.Command) (config.Config, *store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, st, nil
}
