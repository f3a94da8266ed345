package main

import (
	"encoding/json"
	"errors"
	"os"

	"filesorter/internal/organize"
	"filesorter/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var errNotTerminal = errors.New("review needs an interactive terminal; use plan or sort --dry-run instead")

// NewPlanCmd creates the plan command
func NewPlanCmd(a *app) *cobra.Command {
	var (
		flags  passFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "plan [folder]",
		Short: "Show where each file would go without touching anything",
		Args:  cobra.MaximumNArgs(1),
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

			decisions, err := organize.NewSorter(a.settings, a.logger).Plan(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(decisions)
			}
			renderPlan(cmd.OutOrStdout(), decisions)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decisions as JSON")
	return cmd
}

// NewReviewCmd creates the interactive review command
func NewReviewCmd(a *app) *cobra.Command {
	var flags passFlags

	cmd := &cobra.Command{
		Use:   "review [folder]",
		Short: "Review the planned moves and apply the ones you keep",
		Long: `Plan a sort pass and show it as a list. Toggle files with space, apply with
enter. Nothing is moved until you confirm.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errNotTerminal
			}
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

			sorter := organize.NewSorter(a.settings, a.logger)
			decisions, err := sorter.Plan(ctx)
			if err != nil {
				return err
			}

			title := "Sorting " + a.settings.TargetFolder
			m, err := tui.Run(tui.New(title, decisions, sorter.Engine()), tea.WithContext(ctx))
			if err != nil {
				return err
			}
			if m.Applied() {
				a.logger.Infof("Applied %d decision(s)", len(m.Outcomes()))
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
