package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"scanline/internal/config"
	"scanline/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules <path>",
	Short: "List the active rule set for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		dbPath := cfg.RulesDB
		if dbPath == "" {
			dbPath = filepath.Join(".scanline", "rules.db")
		}
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(root, dbPath)
		}

		set, err := rules.Load(dbPath)
		if err != nil {
			return err
		}
		defer set.Close()

		out := cmd.OutOrStdout()
		for _, r := range set.Rules() {
			fmt.Fprintf(out, "%4d  %-28s %-8s %s\n", r.ID, r.Name, r.Severity, r.Category)
		}
		fmt.Fprintf(out, "\n%d rules active (set hash %s)\n", len(set.Rules()), set.Hash()[:12])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
