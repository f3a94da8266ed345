// Package config loads the settings of a sort run.
//
// Sources, lowest precedence first: built-in defaults, a settings file
// (YAML or TOML), FILESORTER_* environment variables, and explicit
// overrides from the command line. Paths are expanded and made absolute
// once, here; the resulting Settings value is never modified afterwards.
package config

import (
	"os"
	"path/filepath"
	"strings"

	apperr "filesorter/internal/errors"
	"filesorter/internal/log"

	"github.com/adrg/xdg"
	"github.com/gobwas/glob"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

const (
	// AppName names the XDG directories
	AppName = "filesorter"
	// EnvPrefix prefixes every environment variable setting
	EnvPrefix = "FILESORTER_"
	// DefaultSettingsFile is looked up in the base directory
	DefaultSettingsFile = "settings.yaml"
	// DefaultRulesFile is the rules file name relative to the base directory
	DefaultRulesFile = "sort_rules.yaml"
)

// Collision strategies for a destination path that already exists.
const (
	CollisionOverwrite = "overwrite"
	CollisionSkip      = "skip"
	CollisionRename    = "rename"
)

// Settings is the resolved, immutable configuration of one run.
type Settings struct {
	TargetFolder      string   `koanf:"target_folder"`
	LogFile           string   `koanf:"log_file"`
	SortRulesFile     string   `koanf:"sort_rules_file"`
	DateFormat        string   `koanf:"date_format"`
	CreateDateFolders bool     `koanf:"create_date_folders"`
	SkipHidden        bool     `koanf:"skip_hidden"`
	DryRun            bool     `koanf:"dry_run"`
	BackupFiles       bool     `koanf:"backup_files"`
	Collision         string   `koanf:"collision"`
	Ignore            []string `koanf:"ignore"`
	SniffContent      bool     `koanf:"sniff_content"`
	LogLevel          string   `koanf:"log_level"`

	// BaseDir anchors a relative sort_rules_file. It is the settings file's
	// directory, or the XDG config directory when no file was read.
	BaseDir string `koanf:"-"`
	// Source is the settings file that was read, if any.
	Source string `koanf:"-"`
}

// Options controls where settings come from.
type Options struct {
	// File is an explicit settings file; it must exist.
	File string
	// Overrides take precedence over every other source, keyed like the
	// settings file.
	Overrides map[string]interface{}
	// SkipEnv ignores the process environment.
	SkipEnv bool
	// RulesOnly accepts settings without a target folder, for commands
	// that only read the rules.
	RulesOnly bool
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"sort_rules_file":     DefaultRulesFile,
		"date_format":         "%Y-%m-%d %H:%M:%S",
		"create_date_folders": false,
		"skip_hidden":         true,
		"dry_run":             false,
		"backup_files":        false,
		"collision":           CollisionOverwrite,
		"sniff_content":       false,
		"log_level":           "info",
	}
}

// DefaultBaseDir is $XDG_CONFIG_HOME/filesorter.
func DefaultBaseDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Load resolves settings from all sources and validates them.
func Load(opts Options) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, apperr.NewConfigError("failed to load defaults", "", apperr.InvalidConfig, err)
	}

	baseDir := DefaultBaseDir()
	source := ""
	settingsFile := opts.File
	if settingsFile == "" {
		candidate := filepath.Join(baseDir, DefaultSettingsFile)
		if _, err := os.Stat(candidate); err == nil {
			settingsFile = candidate
		}
	}
	if settingsFile != "" {
		abs, err := ExpandPath(settingsFile, "")
		if err != nil {
			return nil, apperr.NewConfigError("invalid settings file path", settingsFile, apperr.InvalidConfig, err)
		}
		if err := loadFile(k, abs); err != nil {
			return nil, err
		}
		baseDir = filepath.Dir(abs)
		source = abs
	}

	if !opts.SkipEnv {
		if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
			return nil, apperr.NewConfigError("failed to read environment", "", apperr.InvalidConfig, err)
		}
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, apperr.NewConfigError("failed to apply overrides", "", apperr.InvalidConfig, err)
		}
	}

	var s Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, apperr.NewConfigError("malformed settings", "", apperr.InvalidConfig, err)
	}
	s.BaseDir = baseDir
	s.Source = source

	if err := s.resolvePaths(); err != nil {
		return nil, err
	}
	if err := s.validate(!opts.RulesOnly); err != nil {
		return nil, err
	}
	return &s, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return apperr.NewConfigError("settings file not found", path, apperr.ConfigNotFound, err)
		}
		return apperr.NewConfigError("cannot access settings file", path, apperr.InvalidConfig, err)
	}

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml", "":
		parser = yaml.Parser()
	default:
		return apperr.NewConfigError("unsupported settings file format (use .yaml or .toml)", path, apperr.InvalidConfig, nil)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return apperr.NewConfigError("failed to parse settings file", path, apperr.InvalidConfig, err)
	}
	return nil
}

// envValue maps FILESORTER_TARGET_FOLDER=... to target_folder and splits
// list settings on commas.
func envValue(key, value string) (string, interface{}) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if name == "ignore" {
		var patterns []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		return name, patterns
	}
	return name, value
}

func (s *Settings) resolvePaths() error {
	var err error
	if s.TargetFolder != "" {
		if s.TargetFolder, err = ExpandPath(s.TargetFolder, ""); err != nil {
			return apperr.NewConfigError("invalid path", "target_folder", apperr.InvalidConfig, err)
		}
	}
	if s.LogFile != "" {
		if s.LogFile, err = ExpandPath(s.LogFile, ""); err != nil {
			return apperr.NewConfigError("invalid path", "log_file", apperr.InvalidConfig, err)
		}
	}
	if s.SortRulesFile != "" {
		if s.SortRulesFile, err = ExpandPath(s.SortRulesFile, s.BaseDir); err != nil {
			return apperr.NewConfigError("invalid path", "sort_rules_file", apperr.InvalidConfig, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ and makes p absolute. Relative paths are
// joined to base, or to the working directory when base is empty.
func ExpandPath(p, base string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, p[1:])
	}
	if !filepath.IsAbs(p) && base != "" {
		p = filepath.Join(base, p)
	}
	return filepath.Abs(p)
}

// Validate checks the settings of a sort pass.
func (s *Settings) Validate() error {
	return s.validate(true)
}

func (s *Settings) validate(requireTarget bool) error {
	if s == nil {
		return apperr.NewConfigError("nil settings", "", apperr.InvalidConfig, nil)
	}
	if requireTarget && s.TargetFolder == "" {
		return apperr.NewConfigError("required setting missing", "target_folder", apperr.ConfigNotSet, nil)
	}
	if s.SortRulesFile == "" {
		return apperr.NewConfigError("required setting missing", "sort_rules_file", apperr.ConfigNotSet, nil)
	}
	if strings.TrimSpace(s.DateFormat) == "" {
		return apperr.NewConfigError("required setting missing", "date_format", apperr.ConfigNotSet, nil)
	}

	switch s.Collision {
	case CollisionOverwrite, CollisionSkip, CollisionRename:
	default:
		return apperr.NewConfigError("invalid collision strategy (use overwrite, skip or rename)", "collision", apperr.InvalidConfig, apperr.Newf("got %q", s.Collision))
	}

	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return apperr.NewConfigError("invalid log level", "log_level", apperr.InvalidConfig, err)
	}

	if _, err := s.IgnoreMatchers(); err != nil {
		return err
	}
	return nil
}

// IgnoreMatchers compiles the ignore globs.
func (s *Settings) IgnoreMatchers() ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(s.Ignore))
	for _, pattern := range s.Ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, apperr.NewConfigError("invalid ignore pattern", "ignore", apperr.InvalidConfig, apperr.Wrapf(err, "%q", pattern))
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

// Level returns the configured log level, defaulting to info.
func (s *Settings) Level() logrus.Level {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
