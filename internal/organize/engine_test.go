package organize_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"filesorter/internal/config"
	apperr "filesorter/internal/errors"
	"filesorter/internal/organize"
	"filesorter/pkg/testutils"
	"filesorter/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, mutate func(*config.Settings)) (*organize.Engine, string) {
	t.Helper()
	target := t.TempDir()
	settings := testutils.NewSettings(t, target)
	if mutate != nil {
		mutate(settings)
	}
	return organize.NewEngine(settings, nil), target
}

func TestPlanActions(t *testing.T) {
	tests := []struct {
		name   string
		dryRun bool
		backup bool
		want   types.Action
	}{
		{"move", false, false, types.ActionMove},
		{"simulate", true, false, types.ActionSimulate},
		{"backup then move", false, true, types.ActionBackupMove},
		{"backup then simulate", true, true, types.ActionBackupSimulate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine, target := newEngine(t, func(s *config.Settings) {
				s.DryRun = tc.dryRun
				s.BackupFiles = tc.backup
			})
			testutils.CreateTestFilesWithContent(t, target, map[string]string{"x.pdf": "pdf"})

			d := engine.Plan(types.NewCandidate(filepath.Join(target, "x.pdf")), "Documents")
			assert.Equal(t, tc.want, d.Action)
			assert.Equal(t, filepath.Join(target, "Documents"), d.DestinationFolder)
			assert.Equal(t, filepath.Join(target, "Documents", "x.pdf"), d.DestinationPath)
			if tc.backup {
				assert.Equal(t, filepath.Join(target, "Documents", "x.pdf.backup"), d.BackupPath)
			} else {
				assert.Empty(t, d.BackupPath)
			}
			assert.False(t, d.Collision)

			_, err := os.Stat(d.DestinationFolder)
			assert.True(t, os.IsNotExist(err), "planning must not create folders")
		})
	}
}

func TestPlaceMovesFile(t *testing.T) {
	engine, target := newEngine(t, nil)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"a.jpg": "image"})

	out := engine.Place(types.NewCandidate(filepath.Join(target, "a.jpg")), "Pictures")
	require.NoError(t, out.Err)
	assert.True(t, out.Moved)
	assert.False(t, out.BackedUp)
	assert.Equal(t, int64(5), out.Size)

	assert.NoFileExists(t, filepath.Join(target, "a.jpg"))
	content, err := os.ReadFile(filepath.Join(target, "Pictures", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image", string(content))
}

func TestPlaceCreatesMissingParents(t *testing.T) {
	engine, target := newEngine(t, nil)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"song.mp3": "la"})

	out := engine.Place(types.NewCandidate(filepath.Join(target, "song.mp3")), filepath.Join("Media", "Music"))
	require.NoError(t, out.Err)
	assert.FileExists(t, filepath.Join(target, "Media", "Music", "song.mp3"))
}

func TestPlaceBackupPreservesMetadata(t *testing.T) {
	engine, target := newEngine(t, func(s *config.Settings) { s.BackupFiles = true })
	src := filepath.Join(target, "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("quarterly"), 0640))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	out := engine.Place(types.NewCandidate(src), "Documents")
	require.NoError(t, out.Err)
	assert.True(t, out.BackedUp)
	assert.True(t, out.Moved)

	backup := filepath.Join(target, "Documents", "report.pdf.backup")
	info, err := os.Stat(backup)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime), "backup keeps the modification time")

	content, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "quarterly", string(content))
	assert.FileExists(t, filepath.Join(target, "Documents", "report.pdf"))
}

func TestPlaceDryRunWithBackup(t *testing.T) {
	sink, hook := testutils.NewTestSink()
	target := t.TempDir()
	settings := testutils.NewSettings(t, target)
	settings.DryRun = true
	settings.BackupFiles = true
	engine := organize.NewEngine(settings, sink)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"x.pdf": "pdf"})

	out := engine.Place(types.NewCandidate(filepath.Join(target, "x.pdf")), "Documents")
	require.NoError(t, out.Err)
	assert.True(t, out.BackedUp)
	assert.False(t, out.Moved)

	assert.FileExists(t, filepath.Join(target, "x.pdf"))
	assert.FileExists(t, filepath.Join(target, "Documents", "x.pdf.backup"))
	assert.NoFileExists(t, filepath.Join(target, "Documents", "x.pdf"))

	assert.Contains(t, testutils.Messages(hook, logrus.WarnLevel), "[DRY RUN] Backup written despite dry run: "+filepath.Join(target, "Documents", "x.pdf.backup"))
	assert.Contains(t, testutils.Messages(hook, logrus.InfoLevel), "[DRY RUN] x.pdf -> Documents")
}

func TestPlaceDryRunOnlyCreatesFolder(t *testing.T) {
	engine, target := newEngine(t, func(s *config.Settings) { s.DryRun = true })
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"x.pdf": "pdf"})

	out := engine.Place(types.NewCandidate(filepath.Join(target, "x.pdf")), "Documents")
	require.NoError(t, out.Err)
	assert.Equal(t, types.ActionSimulate, out.Action)
	assert.False(t, out.Moved)
	assert.Equal(t, []string{"Documents", "x.pdf"}, testutils.ListDir(t, target))
	assert.Empty(t, testutils.ListDir(t, filepath.Join(target, "Documents")))
}

func TestPlaceDryRunFolderFailure(t *testing.T) {
	engine, target := newEngine(t, func(s *config.Settings) { s.DryRun = true })
	testutils.CreateTestFilesWithContent(t, target, map[string]string{
		"x.pdf":     "pdf",
		"Documents": "a file, not a folder",
	})

	out := engine.Place(types.NewCandidate(filepath.Join(target, "x.pdf")), "Documents")
	require.Error(t, out.Err)
	assert.True(t, apperr.IsPlacementError(out.Err))
	assert.FileExists(t, filepath.Join(target, "x.pdf"))
}

func TestCollisionStrategies(t *testing.T) {
	setup := func(t *testing.T, strategy string) (*organize.Engine, string, types.Candidate) {
		engine, target := newEngine(t, func(s *config.Settings) { s.Collision = strategy })
		testutils.CreateTestFilesWithContent(t, target, map[string]string{
			"a.txt":                             "new",
			filepath.Join("Documents", "a.txt"): "old",
		})
		return engine, target, types.NewCandidate(filepath.Join(target, "a.txt"))
	}
	read := func(t *testing.T, path string) string {
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(b)
	}

	t.Run("overwrite", func(t *testing.T) {
		engine, target, cand := setup(t, config.CollisionOverwrite)
		out := engine.Place(cand, "Documents")
		require.NoError(t, out.Err)
		assert.True(t, out.Collision)
		assert.True(t, out.Overwrote)
		assert.Equal(t, "new", read(t, filepath.Join(target, "Documents", "a.txt")))
	})

	t.Run("skip", func(t *testing.T) {
		engine, target, cand := setup(t, config.CollisionSkip)
		out := engine.Place(cand, "Documents")
		require.NoError(t, out.Err)
		assert.Equal(t, types.ActionSkip, out.Action)
		assert.False(t, out.Moved)
		assert.Equal(t, "new", read(t, filepath.Join(target, "a.txt")))
		assert.Equal(t, "old", read(t, filepath.Join(target, "Documents", "a.txt")))
	})

	t.Run("rename", func(t *testing.T) {
		engine, target, cand := setup(t, config.CollisionRename)
		testutils.CreateTestFilesWithContent(t, target, map[string]string{
			filepath.Join("Documents", "a_(1).txt"): "older",
		})
		out := engine.Place(cand, "Documents")
		require.NoError(t, out.Err)
		assert.Equal(t, filepath.Join(target, "Documents", "a_(2).txt"), out.DestinationPath)
		assert.Equal(t, "new", read(t, out.DestinationPath))
		assert.Equal(t, "old", read(t, filepath.Join(target, "Documents", "a.txt")))
	})

	t.Run("rename hidden name", func(t *testing.T) {
		engine, target := newEngine(t, func(s *config.Settings) { s.Collision = config.CollisionRename })
		testutils.CreateTestFilesWithContent(t, target, map[string]string{
			".profile":                         "new",
			filepath.Join("Other", ".profile"): "old",
		})
		d := engine.Plan(types.NewCandidate(filepath.Join(target, ".profile")), "Other")
		assert.Equal(t, filepath.Join(target, "Other", ".profile_(1)"), d.DestinationPath)
	})
}

func TestBackupFailureSkipsMove(t *testing.T) {
	sink, hook := testutils.NewTestSink()
	target := t.TempDir()
	settings := testutils.NewSettings(t, target)
	settings.BackupFiles = true
	engine := organize.NewEngine(settings, sink)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"x.pdf": "pdf"})
	// a directory where the backup file should go
	require.NoError(t, os.MkdirAll(filepath.Join(target, "Documents", "x.pdf.backup"), 0755))

	out := engine.Place(types.NewCandidate(filepath.Join(target, "x.pdf")), "Documents")
	require.Error(t, out.Err)
	assert.True(t, apperr.IsBackupError(out.Err))
	assert.False(t, out.Moved)
	assert.FileExists(t, filepath.Join(target, "x.pdf"))

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "x.pdf", last.Data["file"])
	assert.Equal(t, "backup_failed", last.Data["error_kind"])
}

func TestPlacementFailure(t *testing.T) {
	engine, target := newEngine(t, nil)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{
		"a.jpg":    "image",
		"Pictures": "a file, not a folder",
	})

	out := engine.Place(types.NewCandidate(filepath.Join(target, "a.jpg")), "Pictures")
	require.Error(t, out.Err)
	assert.True(t, apperr.IsPlacementError(out.Err))
	assert.Contains(t, out.Err.Error(), "failed to move file")
	assert.FileExists(t, filepath.Join(target, "a.jpg"))
}

func TestApplyMissingSource(t *testing.T) {
	engine, target := newEngine(t, nil)
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"gone.txt": "x"})
	d := engine.Plan(types.NewCandidate(filepath.Join(target, "gone.txt")), "Documents")
	require.NoError(t, os.Remove(d.Source))

	out := engine.Apply(d)
	assert.True(t, apperr.IsPlacementError(out.Err))
}
