package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:           "scanline",
	Short:         "Incremental rule-based source code scanner",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitErr carries an enforcement exit code out of RunE so deferred
// cleanup (signal stop, log sync) runs before the process exits.
type exitErr struct {
	code int
}

func (e exitErr) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-file diagnostics")
}
