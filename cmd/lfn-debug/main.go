// Command lfn-debug runs diagnostics for the LFN Audio Toolkit and helps
// inspect its logs.
package main

import (
	"os"

	"github.com/lfn-audio/lfn-toolkit/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
