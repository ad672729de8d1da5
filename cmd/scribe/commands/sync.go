package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scribebot/scribe/internal/config"
	"github.com/scribebot/scribe/internal/printer"
	"github.com/scribebot/scribe/internal/storage"
)

var syncTo string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy the snapshot from the active backend into the other",
	Long: `Load the full snapshot from the active backend and save it into the
other backend, overwriting whatever that backend held.

Useful for recovery: after running degraded on the fallback backend, sync
the fallback's state back into the primary before switching over.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncTo, "to", "", "Destination backend: sqlite or json (default: the non-active one)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
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

	var src, dst storage.Backend = db, flat
	if cfg.Backend == config.BackendJSON {
		src, dst = flat, db
	}
	if syncTo != "" {
		switch syncTo {
		case "sqlite":
			dst = db
		case "json":
			dst = flat
		default:
			return fmt.Errorf("invalid destination: %s (must be 'sqlite' or 'json')", syncTo)
		}
	}
	if src.Name() == dst.Name() {
		return fmt.Errorf("source and destination are both the %s backend", src.Name())
	}

	snap, err := src.Load(ctx)
	if err != nil {
		return printer.Error("Could not load from "+src.Name()+" backend",
			err.Error(),
			[]string{"Run 'scribe status' to inspect both backends"})
	}

	if err := dst.Save(ctx, snap); err != nil {
		return printer.Error("Could not save to "+dst.Name()+" backend",
			err.Error(),
			[]string{"The destination was left in its previous state"})
	}

	lists, items := snap.Counts()
	printer.Success("Synced %d lists / %d items from %s to %s\n", lists, items, src.Name(), dst.Name())
	return nil
}
