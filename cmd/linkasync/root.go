package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
)

var rootCmd = &cobra.Command{
	Use:           "linkasync",
	Short:         "Offline-first sync engine for LINKa type data",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "linkatype.db", "path to the local SQLite database")
	pf.String("server", "", "base URL of the remote service")
	pf.String("token", "", "bearer token for the remote service")
	pf.String("log-file", "", "optional rotating log file (stderr if empty)")
	pf.Bool("verbose", false, "enable debug logging")

	viper.SetEnvPrefix("LINKASYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(pf)

	rootCmd.AddCommand(runCmd, flushCmd, statusCmd)
}

// newLogger builds the slog logger from config: stderr by default, a
// rotating file when log-file is set.
func newLogger() *slog.Logger {
	var out io.Writer = os.Stderr
	if path := viper.GetString("log-file"); path != "" {
		out = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
	}
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// openEngine wires the store and the API client from config.
func openEngine(logger *slog.Logger) (*localstore.Store, *linkaapi.Client, error) {
	server := viper.GetString("server")
	if server == "" {
		return nil, nil, fmt.Errorf("--server is required (or LINKASYNC_SERVER)")
	}
	token := viper.GetString("token")
	if token == "" {
		return nil, nil, fmt.Errorf("--token is required (or LINKASYNC_TOKEN)")
	}

	store, err := localstore.Open(viper.GetString("db"))
	if err != nil {
		return nil, nil, err
	}
	store.SetLogger(logger)

	api := linkaapi.NewClient(server, func(ctx context.Context) (string, error) {
		return token, nil
	})
	api.SetLogger(logger)
	return store, api, nil
}
