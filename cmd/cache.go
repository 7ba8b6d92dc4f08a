package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheYes bool

// cacheCmd groups idempotency cache maintenance.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the sync idempotency cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cache as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadRuntime()
		if err != nil {
			return err
		}
		defer l.Sync()

		store, err := newStore(context.Background(), cfg)
		if err != nil {
			return err
		}
		cache, err := store.Load(context.Background())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cache)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache",
	Long: `Deletes the idempotency cache. The next pass pushes every flight again and
adopts existing plans through the presence listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadRuntime()
		if err != nil {
			return err
		}
		defer l.Sync()

		if !confirmDestructiveAction(cacheYes, "The sync cache will be deleted.") {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}

		store, err := newStore(context.Background(), cfg)
		if err != nil {
			return err
		}
		if err := store.Clear(context.Background()); err != nil {
			return err
		}
		l.Info("Sync cache cleared", zap.String("backend", cfg.Sync.CacheBackend))
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheYes, "yes", false, "Auto-confirm (non-interactive)")
	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd)
	RootCmd.AddCommand(cacheCmd)
}
