package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print key count, garbage bytes, and active log size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			s := store.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "keys=%d garbage=%d log_size=%d\n", s.Keys, s.Garbage, s.LogSize)
			return nil
		},
	}
}
