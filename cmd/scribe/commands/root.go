package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scribebot/scribe/internal/config"
	"github.com/scribebot/scribe/internal/storage"
)

var (
	version string
	commit  string
	date    string

	// --config flag, shared by all subcommands
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe - collaborative todo lists for chat guilds",
	Long: `Scribe keeps named, checkable todo lists for many isolated chat guilds,
persisted through a structured SQLite backend with a flat-file JSON fallback.

The scribe CLI is the operator surface: inspect backend health, run the
one-time flat-file migration, dump the persisted snapshot, and copy state
between backends for recovery.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to scribe.yml (default: ./scribe.yml if present)")
}

// loadConfig resolves the configuration for a command invocation:
// an explicit --config path, a scribe.yml in the working directory,
// or built-in defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	if _, err := os.Stat("scribe.yml"); err == nil {
		return config.Load("scribe.yml")
	}
	return config.Default(), nil
}

// openBackends opens both storage backends for the configured data dir.
// Callers own closing the returned backends.
func openBackends(cfg *config.Config) (*storage.SQLiteBackend, *storage.JSONBackend, error) {
	db, err := storage.NewSQLiteBackend(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite backend: %w", err)
	}

	flat, err := storage.NewJSONBackend(cfg.FlatFilePath())
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open json backend: %w", err)
	}

	return db, flat, nil
}
