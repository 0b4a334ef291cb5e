package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"scanline/internal/config"
	"scanline/internal/logging"
	"scanline/internal/runner"
)

var (
	flagFormat           string
	flagConcurrency      int
	flagNoCache          bool
	flagQuiet            int
	flagMode             string
	flagGenerateBaseline bool
	flagBaselineFile     string
	flagRulesDB          string
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan a directory tree against the active rule set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		log, err := logging.New(flagVerbose)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		// The handler only cancels the context; admission of further
		// scan tasks stops, in-flight tasks finish, and the deferred
		// lock release still runs.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		code, err := runner.Run(ctx, runner.Options{
			Root:             root,
			Config:           cfg,
			GenerateBaseline: flagGenerateBaseline,
			Quiet:            flagQuiet,
			Progress:         showProgress(),
			Out:              cmd.OutOrStdout(),
			Log:              log,
		})
		if err != nil {
			return err
		}
		if code != 0 {
			return exitErr{code: code}
		}
		return nil
	},
}

// applyFlags overlays explicitly set CLI flags onto the merged file
// configuration; flags always win.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("format") {
		cfg.Format = flagFormat
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flagConcurrency
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.CacheEnabled = !flagNoCache
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = flagMode
	}
	if cmd.Flags().Changed("baseline-file") {
		cfg.BaselineFile = flagBaselineFile
	}
	if cmd.Flags().Changed("rules") {
		cfg.RulesDB = flagRulesDB
	}
}

// showProgress reports whether stderr progress updates should be on:
// interactive terminal, no quiet flag, and not running under CI.
func showProgress() bool {
	if flagQuiet > 0 || os.Getenv("CI") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd())
}

func init() {
	scanCmd.Flags().StringVar(&flagFormat, "format", config.FormatTable, "output format: table, json, sarif, github")
	scanCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "max concurrent scan tasks (default: CPU cores)")
	scanCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable the content cache")
	scanCmd.Flags().CountVarP(&flagQuiet, "quiet", "q", "reduce table output (-q drops infos, -qq keeps only errors)")
	scanCmd.Flags().StringVar(&flagMode, "mode", config.ModeWarn, "run mode: audit, warn, enforce")
	scanCmd.Flags().BoolVar(&flagGenerateBaseline, "generate-baseline", false, "accept all current findings into a new baseline and exit 0")
	scanCmd.Flags().StringVar(&flagBaselineFile, "baseline-file", "", "baseline document path (default <root>/.scanline-baseline.json)")
	scanCmd.Flags().StringVar(&flagRulesDB, "rules", "", "rule database path (default <root>/.scanline/rules.db)")
	rootCmd.AddCommand(scanCmd)
}
