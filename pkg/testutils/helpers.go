package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filesorter/internal/config"
	"filesorter/internal/log"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// SampleRules is a small rule set used across package tests.
const SampleRules = `
images:
  extensions: [jpg, jpeg, png]
  target: Pictures
documents:
  extensions: [pdf, txt, docx]
  target: Documents
other:
  target: Other
`

// CreateTestFilesWithContent creates test files with specific content
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// CreateTestFilesWithDefault creates test files with default content
func CreateTestFilesWithDefault(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"test1.txt": "test content 1",
		"test2.pdf": "test content 2",
		"test3.jpg": "image content",
	}
	CreateTestFilesWithContent(t, dir, files)
}

// WriteRules writes a rules file into a fresh temp dir and returns its path
func WriteRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultRulesFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// NewSettings returns valid settings for target using SampleRules.
// Adjust the returned value before handing it to the code under test.
func NewSettings(t *testing.T, target string) *config.Settings {
	t.Helper()
	rulesFile := WriteRules(t, SampleRules)
	return &config.Settings{
		TargetFolder:  target,
		SortRulesFile: rulesFile,
		DateFormat:    log.DefaultTimeFormat,
		SkipHidden:    true,
		Collision:     config.CollisionOverwrite,
		LogLevel:      "info",
		BaseDir:       filepath.Dir(rulesFile),
	}
}

// NewTestSink returns a sink that records every entry at debug level and
// above in the returned hook.
func NewTestSink() (*log.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return log.FromLogrus(logger), hook
}

// Messages returns the messages recorded by hook at or above level.
func Messages(hook *test.Hook, level logrus.Level) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level <= level {
			out = append(out, e.Message)
		}
	}
	return out
}

// ListDir returns the names in dir, failing the test if it cannot be read
func ListDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range str {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
