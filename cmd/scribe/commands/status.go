package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scribebot/scribe/internal/config"
	"github.com/scribebot/scribe/internal/report"
	"github.com/scribebot/scribe/internal/storage"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend health and record counts",
	Long: `Show the state of both storage backends under the configured data dir.

For each backend, displays:
  • Whether its file exists on disk
  • File size
  • Persisted list and item counts

Use --json for machine-readable output.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, flat, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer flat.Close()

	statuses := make([]storage.Status, 0, 2)
	for _, b := range orderedForStatus(cfg.Backend, db, flat) {
		st, err := b.Status(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s backend status: %v\n", b.Name(), err)
		}
		statuses = append(statuses, st)
	}

	if statusJSON {
		return report.FormatJSON(os.Stdout, statuses)
	}

	fmt.Printf("Active backend: %s\n\n", cfg.Backend)
	report.FormatStatusTable(os.Stdout, statuses)
	return nil
}

// orderedForStatus lists the active backend first.
func orderedForStatus(active string, db *storage.SQLiteBackend, flat *storage.JSONBackend) []storage.Backend {
	if active == config.BackendJSON {
		return []storage.Backend{flat, db}
	}
	return []storage.Backend{db, flat}
}
