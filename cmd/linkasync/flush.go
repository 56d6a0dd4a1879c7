package main

import (
	"github.com/spf13/cobra"

	"github.com/linkasu/linkatype-sync/syncer"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drain the offline queue once",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		store, api, err := openEngine(logger)
		if err != nil {
			return err
		}
		defer store.Close()

		processor := syncer.NewProcessor(store, api, logger)
		if err := processor.Flush(cmd.Context()); err != nil {
			return err
		}

		remaining, err := store.CountOfflineQueue(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("flush complete", "remaining", remaining)
		return nil
	},
}
