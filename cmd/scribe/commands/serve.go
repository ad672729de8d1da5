package commands

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribebot/scribe/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the todo store service",
	Long: `Open the todo store and serve until interrupted.

Startup runs the one-time flat-file migration, loads the snapshot into
memory and starts the durability scheduler. On SIGINT/SIGTERM the store
shuts down gracefully: a final forced save runs if any mutation is still
unsaved, then the storage handles are released.

The chat gateway attaches to the opened store; serve keeps the store's
lifecycle owned by one process.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}

	log.Printf("[Serve] Store open (backend: %s, data dir: %s)", cfg.Backend, cfg.DataDir)

	// Block until interrupted
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("[Serve] Shutting down...")

	// The final flush is a deterministic, awaited step - but it must not
	// hang forever on a dead disk.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Close(shutdownCtx); err != nil {
		log.Printf("[Serve] Shutdown error: %v", err)
		return err
	}

	log.Printf("[Serve] Done")
	return nil
}
