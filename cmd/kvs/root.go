package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amanlalwani007/kvs/internal/storelog"
	"github.com/amanlalwani007/kvs/kv"
)

// cfg resolves the CLI's own operating parameters (store directory,
// verbosity, compaction threshold) from flags and KVS_-prefixed
// environment variables, in that precedence order; no config file is
// read. These are ambient CLI
// concerns, distinct from the core engine, which consumes no
// environment variables of its own.
var cfg = viper.New()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kvs",
		Short: "An embedded, append-only-log-backed key/value store",
		Long: "kvs persists string-to-string mappings through an append-only\n" +
			"command log with an in-memory index, reclaiming space via\n" +
			"periodic log compaction.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("dir", "", "store directory (default: current working directory)")
	flags.Bool("verbose", false, "enable development-mode logging")
	flags.Uint64("compaction-threshold", kv.DefaultCompactionThreshold, "garbage bytes in the active log that trigger compaction")

	_ = cfg.BindPFlag("dir", flags.Lookup("dir"))
	_ = cfg.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = cfg.BindPFlag("compaction-threshold", flags.Lookup("compaction-threshold"))
	cfg.SetEnvPrefix("kvs")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	root.AddCommand(
		newGetCmd(),
		newSetCmd(),
		newRmCmd(),
		newCompactCmd(),
		newStatsCmd(),
	)
	return root
}

// openStore resolves the configured directory and opens the engine
// against it, wiring in the CLI's logger and compaction threshold.
func openStore() (*kv.Engine, error) {
	dir := cfg.GetString("dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}

	logger := storelog.New(cfg.GetBool("verbose"))
	return kv.Open(dir,
		kv.WithLogger(logger),
		kv.WithCompactionThreshold(cfg.GetUint64("compaction-threshold")),
	)
}
