// Command kvs is a one-shot CLI exposing get/set/rm subcommands against
// the embedded key/value store in the current (or --dir) directory. It
// talks to the core only through the public kv.Engine operations.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
