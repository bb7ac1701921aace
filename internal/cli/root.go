package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mapgrove/mapgrove/internal/config"
	"github.com/mapgrove/mapgrove/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mapgrove",
	Short: "Self-pruning mind map server",
	Long:  "Mapgrove stores collaborative mind maps in SQLite and deletes the ones nobody touches. Single Go binary, zero external services.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default ~/.mapgrove/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(listCmd)
}

// loadConfig resolves the config file path and loads it. A missing file just
// yields the defaults.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config.Default(), nil
		}
		path = filepath.Join(home, ".mapgrove", "config.yaml")
	}
	return config.Load(path)
}

// openDB opens the database for CLI commands. MAPGROVE_DB overrides the
// configured path.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := os.Getenv("MAPGROVE_DB")
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(dbPath)
}
