package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/linkasu/linkatype-sync/syncer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the change poll loop and periodic offline queue flushes",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		store, api, err := openEngine(logger)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		changes := syncer.NewSyncer(store, api, logger)
		processor := syncer.NewProcessor(store, api, logger)
		interval := viper.GetDuration("flush-interval")

		logger.Info("sync engine starting",
			"db", viper.GetString("db"), "server", viper.GetString("server"))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return changes.Run(ctx, syncer.DefaultConfig())
		})
		g.Go(func() error {
			return processor.Run(ctx, interval)
		})

		err = g.Wait()
		if ctx.Err() != nil {
			logger.Info("sync engine stopped")
			return nil
		}
		return err
	},
}

func init() {
	runCmd.Flags().Duration("flush-interval", 30*time.Second, "offline queue flush interval")
	_ = viper.BindPFlag("flush-interval", runCmd.Flags().Lookup("flush-interval"))
}
