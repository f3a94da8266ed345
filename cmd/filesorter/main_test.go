package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	apperr "filesorter/internal/errors"
	"filesorter/internal/rules"
	"filesorter/pkg/testutils"
	"filesorter/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return testutils.StripANSI(stdout.String()), testutils.StripANSI(stderr.String()), err
}

// setup writes a settings file pointing at a fresh target folder.
func setup(t *testing.T) (settingsFile, target string) {
	t.Helper()
	dir := t.TempDir()
	target = filepath.Join(dir, "inbox")
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.yaml"), []byte(testutils.SampleRules), 0644))

	settingsFile = filepath.Join(dir, "settings.yaml")
	content := "target_folder: " + target + "\nsort_rules_file: rules.yaml\n"
	require.NoError(t, os.WriteFile(settingsFile, []byte(content), 0644))
	return settingsFile, target
}

func TestSortCommand(t *testing.T) {
	settings, target := setup(t)
	testutils.CreateTestFilesWithDefault(t, target)

	stdout, stderr, err := execute(t, "--config", settings, "sort")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(target, "Documents", "test1.txt"))
	assert.FileExists(t, filepath.Join(target, "Documents", "test2.pdf"))
	assert.FileExists(t, filepath.Join(target, "Pictures", "test3.jpg"))

	assert.Contains(t, stdout, "Sort complete")
	assert.Contains(t, stdout, "Moved")
	assert.Contains(t, stderr, "Moved test3.jpg -> Pictures")
}

func TestSortCommandDryRun(t *testing.T) {
	settings, target := setup(t)
	testutils.CreateTestFilesWithDefault(t, target)

	stdout, stderr, err := execute(t, "--config", settings, "sort", "--dry-run")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Documents", "Pictures", "test1.txt", "test2.pdf", "test3.jpg"}, testutils.ListDir(t, target))
	assert.Empty(t, testutils.ListDir(t, filepath.Join(target, "Pictures")))
	assert.Contains(t, stdout, "Dry run complete")
	assert.Contains(t, stderr, "[DRY RUN] test3.jpg -> Pictures")
}

func TestSortCommandFolderArgument(t *testing.T) {
	settings, _ := setup(t)
	other := t.TempDir()
	testutils.CreateTestFilesWithContent(t, other, map[string]string{"a.png": "png"})

	_, _, err := execute(t, "--config", settings, "sort", other)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(other, "Pictures", "a.png"))
}

// chdir switches the working directory for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestRelativeRulesFlagUsesWorkingDirectory(t *testing.T) {
	settings, target := setup(t)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"a.jpg": "a"})

	wd, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(wd, "my_rules.yaml"), []byte("images:\n  extensions: [jpg]\n  target: Photos\n"), 0644))
	chdir(t, wd)

	stdout, _, err := execute(t, "--config", settings, "rules", "check", "--rules", "my_rules.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(wd, "my_rules.yaml"))

	_, _, err = execute(t, "--config", settings, "sort", "--rules", "my_rules.yaml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, "Photos", "a.jpg"))
}

func TestRelativeRulesSettingUsesSettingsDirectory(t *testing.T) {
	settings, target := setup(t)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"a.jpg": "a"})
	chdir(t, t.TempDir())

	_, _, err := execute(t, "--config", settings, "sort")
	require.NoError(t, err, "sort_rules_file: rules.yaml sits next to the settings file")
	assert.FileExists(t, filepath.Join(target, "Pictures", "a.jpg"))
}

func TestSortCommandFatalErrors(t *testing.T) {
	settings, target := setup(t)

	_, _, err := execute(t, "--config", settings, "sort", "--target", filepath.Join(target, "missing"))
	require.Error(t, err)
	assert.Equal(t, apperr.ConfigNotFound, apperr.KindOf(err))

	_, _, err = execute(t, "--config", settings, "sort", "--collision", "explode")
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidConfig, apperr.KindOf(err))

	_, _, err = execute(t, "--config", settings, "sort", "--rules", filepath.Join(target, "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, apperr.ConfigNotFound, apperr.KindOf(err))
}

func TestPlanCommandJSON(t *testing.T) {
	settings, target := setup(t)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"notes.txt": "n", ".hidden": "h"})

	stdout, _, err := execute(t, "--config", settings, "plan", "--json")
	require.NoError(t, err)

	var decisions []types.Decision
	require.NoError(t, json.Unmarshal([]byte(stdout), &decisions))
	require.Len(t, decisions, 1)
	assert.Equal(t, filepath.Join(target, "notes.txt"), decisions[0].Source)
	assert.Equal(t, filepath.Join(target, "Documents"), decisions[0].DestinationFolder)
	assert.Equal(t, types.ActionMove, decisions[0].Action)

	assert.FileExists(t, filepath.Join(target, "notes.txt"), "plan never moves")
}

func TestPlanCommandText(t *testing.T) {
	settings, target := setup(t)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"a.jpg": "a"})

	stdout, _, err := execute(t, "--config", settings, "plan", "--backup")
	require.NoError(t, err)
	assert.Contains(t, stdout, "a.jpg -> Pictures/a.jpg +backup")
}

func TestReviewNeedsTerminal(t *testing.T) {
	settings, _ := setup(t)
	_, _, err := execute(t, "--config", settings, "review")
	assert.ErrorIs(t, err, errNotTerminal)
}

func TestClassifyCommand(t *testing.T) {
	settings, target := setup(t)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"photo.JPG": "x", "data.bin": "y"})

	stdout, _, err := execute(t, "--config", settings, "classify",
		filepath.Join(target, "photo.JPG"),
		filepath.Join(target, "data.bin"),
		filepath.Join(target, "ghost.pdf"),
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "photo.JPG -> Pictures/")
	assert.Contains(t, stdout, "data.bin -> Other/ (fallback")
	assert.Contains(t, stdout, "ghost.pdf -> Other/ (fallback, not a regular file)")
}

func TestClassifyWithoutTarget(t *testing.T) {
	dir := t.TempDir()
	rulesFile := testutils.WriteRules(t, testutils.SampleRules)
	settings := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("sort_rules_file: "+rulesFile+"\n"), 0644))

	stdout, _, err := execute(t, "--config", settings, "classify", "--json", "report.pdf")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"target": "Other"`, "a missing file is not classified by rules")
}

func TestRulesCommands(t *testing.T) {
	settings, _ := setup(t)

	stdout, _, err := execute(t, "--config", settings, "rules")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 rules")
	assert.Contains(t, stdout, "images -> Pictures/")
	assert.Contains(t, stdout, "unmatched")

	stdout, _, err = execute(t, "--config", settings, "rules", "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 rules OK")

	bad := testutils.WriteRules(t, "images: [jpg]\n")
	_, _, err = execute(t, "--config", settings, "rules", "check", "--rules", bad)
	require.Error(t, err)
	assert.True(t, apperr.IsParseError(err))
}

func TestRulesInit(t *testing.T) {
	settings, _ := setup(t)
	path := filepath.Join(t.TempDir(), "conf", "sort_rules.yaml")

	_, _, err := execute(t, "--config", settings, "rules", "init", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultYAML, data)

	_, _, err = execute(t, "--config", settings, "rules", "init", path)
	require.Error(t, err, "refuses to overwrite")

	_, _, err = execute(t, "--config", settings, "rules", "init", "--force", path)
	require.NoError(t, err)

	stdout, _, err := execute(t, "--config", settings, "rules", "check", "--rules", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "rules OK")
}
