package main

import (
	"context"
	"errors"

	"filesorter/internal/organize"

	"github.com/spf13/cobra"
)

// passFlags are the settings overrides shared by every command that sorts.
type passFlags struct {
	target        string
	rules         string
	dryRun        bool
	backup        bool
	collision     string
	includeHidden bool
	ignore        []string
	sniff         bool
}

func (f *passFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "folder to sort (overrides target_folder)")
	cmd.Flags().StringVarP(&f.rules, "rules", "r", "", "rules file (overrides sort_rules_file)")
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "log what would be moved without moving anything")
	cmd.Flags().BoolVarP(&f.backup, "backup", "b", false, "copy each file to <destination>.backup first")
	cmd.Flags().StringVar(&f.collision, "collision", "", "what to do when the destination exists: overwrite, skip or rename")
	cmd.Flags().BoolVar(&f.includeHidden, "include-hidden", false, "also sort files whose name starts with a dot")
	cmd.Flags().StringSliceVar(&f.ignore, "ignore", nil, "glob of file names to leave alone (repeatable)")
	cmd.Flags().BoolVar(&f.sniff, "sniff", false, "detect the MIME type from content when the name gives none")
}

func (f *passFlags) apply(a *app, cmd *cobra.Command) error {
	if err := a.overridePath(cmd, "target", "target_folder", f.target); err != nil {
		return err
	}
	if err := a.overridePath(cmd, "rules", "sort_rules_file", f.rules); err != nil {
		return err
	}
	a.override(cmd, "dry-run", "dry_run", f.dryRun)
	a.override(cmd, "backup", "backup_files", f.backup)
	a.override(cmd, "collision", "collision", f.collision)
	a.override(cmd, "include-hidden", "skip_hidden", !f.includeHidden)
	a.override(cmd, "ignore", "ignore", f.ignore)
	a.override(cmd, "sniff", "sniff_content", f.sniff)
	return nil
}

// NewSortCmd creates the sort command
func NewSortCmd(a *app) *cobra.Command {
	var flags passFlags

	cmd := &cobra.Command{
		Use:   "sort [folder]",
		Short: "Sort the files of a folder once",
		Long: `Sort every file at the top level of the target folder into the folder named
by the first matching rule. Subfolders are never entered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && !cmd.Flags().Changed("target") {
				a.overrides["target_folder"] = args[0]
			}
			if err := flags.apply(a, cmd); err != nil {
				return err
			}
			if err := a.load(cmd, false); err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			report, err := organize.SortFiles(ctx, a.settings, a.logger)
			if errors.Is(err, context.Canceled) {
				a.logger.Warnf("Interrupted")
				err = nil
			}
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
