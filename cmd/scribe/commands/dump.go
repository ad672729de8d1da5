package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scribebot/scribe/internal/config"
	"github.com/scribebot/scribe/internal/report"
	"github.com/scribebot/scribe/internal/storage"
	"github.com/scribebot/scribe/pkg/todo"
)

var (
	dumpGuild  string
	dumpFormat string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the persisted snapshot",
	Long: `Read the active backend and print every persisted list.

Output formats:
  table   Human-readable table, grouped by guild (default)
  json    Pretty-printed full snapshot
  jsonl   One JSON list object per line, for piping into jq

Use --guild to restrict output to a single guild.`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpGuild, "guild", "", "Only dump lists for this guild ID")
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "table", "Output format: table, json or jsonl")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if dumpFormat != "table" && dumpFormat != "json" && dumpFormat != "jsonl" {
		return fmt.Errorf("invalid format: %s (must be 'table', 'json' or 'jsonl')", dumpFormat)
	}

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

	var active storage.Backend = db
	if cfg.Backend == config.BackendJSON {
		active = flat
	}

	snap, err := active.Load(ctx)
	if err != nil {
		return fmt.Errorf("load from %s backend: %w", active.Name(), err)
	}

	if dumpGuild != "" {
		filtered := todo.Snapshot{}
		if lists, ok := snap[dumpGuild]; ok {
			filtered[dumpGuild] = lists
		}
		snap = filtered
	}

	switch dumpFormat {
	case "json":
		return report.FormatJSON(os.Stdout, snap)
	case "jsonl":
		return report.FormatSnapshotJSONL(os.Stdout, snap)
	default:
		report.FormatSnapshotTable(os.Stdout, snap)
		return nil
	}
}
