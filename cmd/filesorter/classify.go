package main

import (
	"encoding/json"
	"fmt"

	"filesorter/internal/classify"
	"filesorter/internal/rules"
	"filesorter/pkg/types"

	"github.com/spf13/cobra"
)

// NewClassifyCmd creates the classify command
func NewClassifyCmd(a *app) *cobra.Command {
	var (
		rulesFile string
		sniff     bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "classify FILE...",
		Short: "Print the category folder each file would be sorted into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.overridePath(cmd, "rules", "sort_rules_file", rulesFile); err != nil {
				return err
			}
			a.override(cmd, "sniff", "sniff_content", sniff)
			if err := a.load(cmd, true); err != nil {
				return err
			}

			rs, err := rules.Load(a.settings.SortRulesFile)
			if err != nil {
				return err
			}
			c := classify.New(rs, classify.WithContentSniffing(a.settings.SniffContent))

			type entry struct {
				Path string `json:"path"`
				classify.Match
			}
			var entries []entry
			for _, path := range args {
				entries = append(entries, entry{Path: path, Match: c.Classify(types.NewCandidate(path))})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, e := range entries {
				detail := string(e.By)
				if e.MIME != "" {
					detail += ", " + e.MIME
				}
				if e.Ineligible {
					detail += ", not a regular file"
				}
				fmt.Fprintf(out, "%s -> %s/ (%s)\n", e.Path, e.Target, detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "rules file (overrides sort_rules_file)")
	cmd.Flags().BoolVar(&sniff, "sniff", false, "detect the MIME type from content when the name gives none")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the matches as JSON")
	return cmd
}
