package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newRmCmd mirrors the original CLI's shape exactly: it checks presence
// with a Get before calling Remove, so the engine's "append the Remove
// record, then report NotFound" path is never actually reached from
// this command, only from an embedder calling Engine.Remove directly.
func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			key := args[0]
			_, ok, err := store.Get(key)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Key not found")
				os.Exit(1)
			}

			return store.Remove(key)
		},
	}
}
