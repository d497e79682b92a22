package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorequest/internal/config"
	"github.com/dukerupert/chorequest/internal/logging"
)

// rootOptions holds the global flags. Flags that were set override the
// config file and environment.
type rootOptions struct {
	configPath  string
	logLevel    string
	logFormat   string
	storeDriver string
	storePath   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chorequest",
		Short:         "ChoreQuest - household chores with points and badges",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "chorequest.yaml", "path to YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (text|json)")
	flags.StringVar(&opts.storeDriver, "store-driver", "", "document store driver (sqlite|badger|memory)")
	flags.StringVar(&opts.storePath, "store-path", "", "SQLite file or Badger directory")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedBadgesCommand(opts))

	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("store-driver") {
		cfg.Store.Driver = o.storeDriver
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = o.storePath
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetString("port")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return nil
}
