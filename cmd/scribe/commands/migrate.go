package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scribebot/scribe/internal/config"
	"github.com/scribebot/scribe/internal/printer"
	"github.com/scribebot/scribe/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the legacy flat file into the SQLite database",
	Long: `Run the one-time migration of the legacy JSON flat file into the
structured SQLite database.

The migration is idempotent: a database that already holds records is never
overwritten, and a missing flat file simply means there is nothing to do.
After a successful copy the flat file is renamed with the ` + config.BackupSuffix + `
suffix; it is never deleted.

The same migration runs automatically on service startup - this command
exists for running it manually ahead of a deploy.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, flat, err := openBackends(cfg)
	if err != nil {
		return printer.Error("Could not open storage backends",
			err.Error(),
			[]string{"Check that the data dir exists and is writable: " + cfg.DataDir})
	}
	defer db.Close()
	defer flat.Close()

	printer.Step("Migrating %s → %s\n", flat.Path(), cfg.DatabasePath())

	res, err := storage.Migrate(ctx, db, flat, config.BackupSuffix)
	if err != nil {
		return printer.Error("Migration failed",
			err.Error(),
			[]string{
				"The flat file was left untouched; fix the cause and re-run",
				"Run 'scribe status' to inspect both backends",
			})
	}

	switch {
	case res.Skipped:
		printer.Warning("Database already has records, migration skipped\n")
	case res.NoSource:
		printer.Println("No flat file found, nothing to migrate")
	default:
		printer.Success("Migrated %d lists / %d items\n", res.Lists, res.Items)
		printer.Printf("Flat file renamed to %s\n", res.Backup)
	}
	return nil
}
