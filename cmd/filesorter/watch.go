package main

import (
	"time"

	"filesorter/internal/watch"
	"filesorter/pkg/types"

	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(a *app) *cobra.Command {
	var (
		flags     passFlags
		debounce  time.Duration
		noInitial bool
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "watch [folder]",
		Short: "Keep a folder sorted, running a pass whenever files arrive",
		Long: `Watch the target folder and run a sort pass shortly after new files appear.
Runs until interrupted.`,
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

			opts := []watch.Option{
				watch.WithDebounce(debounce),
				watch.WithInitialPass(!noInitial),
			}
			if !quiet {
				out := cmd.OutOrStdout()
				opts = append(opts, watch.WithCallback(func(r *types.Report, err error) {
					if err == nil && r != nil && (r.Moved() > 0 || r.Simulated() > 0 || r.Failed() > 0) {
						renderReport(out, r)
					}
				}))
			}

			a.logger.Infof("Watching %s (Ctrl-C to stop)", a.settings.TargetFolder)
			return watch.NewDaemon(a.settings, a.logger, opts...).Run(ctx)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "wait this long after the last new file before sorting")
	cmd.Flags().BoolVar(&noInitial, "no-initial", false, "do not sort what is already in the folder at start")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print a summary after each pass")
	return cmd
}
