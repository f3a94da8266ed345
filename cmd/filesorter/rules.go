package main

import (
	"fmt"
	"os"
	"path/filepath"

	"filesorter/internal/config"
	apperr "filesorter/internal/errors"
	"filesorter/internal/rules"

	"github.com/spf13/cobra"
)

// NewRulesCmd creates the rules command
func NewRulesCmd(a *app) *cobra.Command {
	var rulesFile string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect, check or create the sorting rules file",
		Long: `View the sorting rules in match order, check a rules file for errors, or write
the sample rules to start from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to listing rules when no subcommand is provided
			return listRules(a, cmd, rulesFile)
		},
	}
	cmd.PersistentFlags().StringVarP(&rulesFile, "rules", "r", "", "rules file (overrides sort_rules_file)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the rules in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRules(a, cmd, rulesFile)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report whether the rules file loads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := loadRules(a, cmd, rulesFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("%s: %d rules OK", a.settings.SortRulesFile, rs.Len())))
			return nil
		},
	})
	cmd.AddCommand(newRulesInitCmd(a, &rulesFile))

	return cmd
}

func newRulesInitCmd(a *app, rulesFile *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the sample rules file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.overridePath(cmd, "rules", "sort_rules_file", *rulesFile); err != nil {
				return err
			}
			if err := a.load(cmd, true); err != nil {
				return err
			}

			path := a.settings.SortRulesFile
			if len(args) == 1 {
				p, err := config.ExpandPath(args[0], "")
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return apperr.NewFileError("rules file already exists (use --force to overwrite)", path, apperr.FileOperationFailed, nil)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return apperr.NewFileError("failed to create rules directory", filepath.Dir(path), apperr.FileOperationFailed, err)
			}
			if err := os.WriteFile(path, rules.DefaultYAML, 0644); err != nil {
				return apperr.NewFileError("failed to write rules file", path, apperr.FileOperationFailed, err)
			}

			a.logger.Infof("Wrote sample rules to %s", path)
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Wrote "+path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func loadRules(a *app, cmd *cobra.Command, rulesFile string) (*rules.RuleSet, error) {
	if err := a.overridePath(cmd, "rules", "sort_rules_file", rulesFile); err != nil {
		return nil, err
	}
	if err := a.load(cmd, true); err != nil {
		return nil, err
	}
	return rules.Load(a.settings.SortRulesFile)
}

func listRules(a *app, cmd *cobra.Command, rulesFile string) error {
	rs, err := loadRules(a, cmd, rulesFile)
	if err != nil {
		return err
	}
	renderRules(cmd.OutOrStdout(), rs)
	return nil
}
