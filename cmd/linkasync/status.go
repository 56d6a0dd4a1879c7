package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/linkasu/linkatype-sync/localstore"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local sync state: cursor, watermarks and pending queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Status is local-only, no server connection needed.
		store, err := localstore.Open(viper.GetString("db"))
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		cursor, err := store.GetSyncValue(ctx, localstore.KeyCursor)
		if err != nil {
			return err
		}
		stateWatermark, err := store.GetSyncInt64(ctx, localstore.KeyStateWatermark)
		if err != nil {
			return err
		}
		quickesWatermark, err := store.GetSyncInt64(ctx, localstore.KeyQuickesWatermark)
		if err != nil {
			return err
		}

		fmt.Printf("cursor:            %s\n", orNone(cursor))
		fmt.Printf("state watermark:   %d\n", stateWatermark)
		fmt.Printf("quickes watermark: %d\n", quickesWatermark)

		entries, err := store.ListOfflineQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("pending entries:   %d\n", len(entries))
		for _, e := range entries {
			lastError := ""
			if e.LastError != nil {
				lastError = " error=" + *e.LastError
			}
			fmt.Printf("  #%d %s/%s retries=%d%s\n", e.ID, e.EntityType, e.OpType, e.RetryCount, lastError)
		}
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
