// Command linkasync runs the offline-first sync engine from the command
// line: a long-running sync loop, a one-shot queue drain and a local status
// report.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
