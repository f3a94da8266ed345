package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"filesorter/internal/config"
	apperr "filesorter/internal/errors"
	"filesorter/internal/log"

	"github.com/spf13/cobra"
)

var version = "dev"

// app holds what the subcommands share: the persistent flags, the resolved
// settings and the process logger.
type app struct {
	cfgFile  string
	logLevel string
	logFile  string
	jsonLogs bool

	// overrides collects the flags a subcommand changed, keyed like the
	// settings file.
	overrides map[string]interface{}

	settings *config.Settings
	logger   *log.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{overrides: map[string]interface{}{}}

	rootCmd := &cobra.Command{
		Use:   "filesorter",
		Short: "Sort the files of a folder into category folders",
		Long: `filesorter classifies every file at the top level of a folder by MIME type
and extension, using an ordered rules file, and moves it into a category
folder next to it. Dry runs, backups and watch mode are available.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "settings file (default is $XDG_CONFIG_HOME/filesorter/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "also write log lines to this file")
	rootCmd.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "write console log lines as JSON")

	rootCmd.AddCommand(NewSortCmd(a))
	rootCmd.AddCommand(NewPlanCmd(a))
	rootCmd.AddCommand(NewReviewCmd(a))
	rootCmd.AddCommand(NewWatchCmd(a))
	rootCmd.AddCommand(NewClassifyCmd(a))
	rootCmd.AddCommand(NewRulesCmd(a))

	return rootCmd
}

// override records a setting when the flag was given on the command line.
func (a *app) override(cmd *cobra.Command, flag, key string, value interface{}) {
	if cmd.Flags().Changed(flag) {
		a.overrides[key] = value
	}
}

// overridePath records a path flag resolved against the working directory,
// so a relative --rules is not anchored to the settings directory.
func (a *app) overridePath(cmd *cobra.Command, flag, key, value string) error {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	p, err := config.ExpandPath(value, "")
	if err != nil {
		return apperr.NewConfigError("invalid path", key, apperr.InvalidConfig, err)
	}
	a.overrides[key] = p
	return nil
}

// load resolves the settings and sets up logging. rulesOnly accepts
// settings without a target folder.
func (a *app) load(cmd *cobra.Command, rulesOnly bool) error {
	if a.logLevel != "" {
		a.overrides["log_level"] = a.logLevel
	}
	if a.logFile != "" {
		a.overrides["log_file"] = a.logFile
	}

	settings, err := config.Load(config.Options{
		File:      a.cfgFile,
		Overrides: a.overrides,
		RulesOnly: rulesOnly,
	})
	if err != nil {
		return err
	}
	a.settings = settings

	opts := []log.Option{
		log.WithOutput(cmd.ErrOrStderr()),
		log.WithLevel(settings.Level()),
		log.WithTimeFormat(settings.DateFormat),
		log.WithFile(settings.LogFile),
	}
	if a.jsonLogs {
		opts = append(opts, log.WithJSON())
	}
	a.logger = log.NewLogger(opts...)
	if settings.Source != "" {
		a.logger.Debugf("Loaded settings from %s", settings.Source)
	}
	return nil
}

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
