package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filesorter/internal/config"
	apperr "filesorter/internal/errors"
	"filesorter/internal/log"
	"filesorter/pkg/types"

	"github.com/dustin/go-humanize"
)

// maxRenameAttempts bounds the search for a free "name_(N).ext" destination.
const maxRenameAttempts = 1000

// BackupSuffix is appended to the destination path to name backup copies.
const BackupSuffix = ".backup"

// Engine places classified files into their category folders.
type Engine struct {
	settings *config.Settings
	sink     log.Sink
}

var _ Placer = (*Engine)(nil)

// NewEngine creates a placement engine for one set of settings.
func NewEngine(settings *config.Settings, sink log.Sink) *Engine {
	if sink == nil {
		sink = log.Discard()
	}
	return &Engine{settings: settings, sink: sink}
}

// Plan decides where cand goes when its category folder is target. It only
// inspects the filesystem.
func (e *Engine) Plan(cand types.Candidate, target string) types.Decision {
	folder := filepath.Join(e.settings.TargetFolder, target)
	d := types.Decision{
		Source:            cand.Path,
		Category:          target,
		DestinationFolder: folder,
		DestinationPath:   filepath.Join(folder, cand.Name),
	}

	if filepath.Clean(d.Source) == filepath.Clean(d.DestinationPath) {
		d.Action = types.ActionSkip
		return d
	}

	if exists(d.DestinationPath) {
		d.Collision = true
		switch e.settings.Collision {
		case config.CollisionSkip:
			d.Action = types.ActionSkip
			return d
		case config.CollisionRename:
			unique, err := uniqueDestination(d.DestinationPath)
			if err != nil {
				e.sink.With(log.F("file", cand.Name)).WithError(err).Warnf("No free destination name, leaving %s in place", cand.Name)
				d.Action = types.ActionSkip
				return d
			}
			d.DestinationPath = unique
		}
	}

	if e.settings.BackupFiles {
		d.BackupPath = d.DestinationPath + BackupSuffix
	}

	switch {
	case e.settings.BackupFiles && e.settings.DryRun:
		d.Action = types.ActionBackupSimulate
	case e.settings.BackupFiles:
		d.Action = types.ActionBackupMove
	case e.settings.DryRun:
		d.Action = types.ActionSimulate
	default:
		d.Action = types.ActionMove
	}
	return d
}

// Place plans and applies the placement of cand.
func (e *Engine) Place(cand types.Candidate, target string) types.Outcome {
	return e.Apply(e.Plan(cand, target))
}

// Apply carries out a decision. The destination folder is created first,
// dry run or not. Failures are logged and returned in the outcome; they
// never panic or abort the caller.
func (e *Engine) Apply(d types.Decision) types.Outcome {
	out := types.Outcome{Decision: d}
	name := filepath.Base(d.Source)
	folder := filepath.Base(d.DestinationFolder)
	sink := e.sink.With(log.F("file", name))

	if info, err := os.Stat(d.Source); err == nil {
		out.Size = info.Size()
	}

	if d.Action == types.ActionSkip {
		if d.Collision {
			sink.Infof("Skipping %s: %s already exists (collision: %s)", name, d.DestinationPath, e.settings.Collision)
		} else {
			sink.Debugf("Skipping %s: already in place", name)
		}
		return out
	}

	if err := os.MkdirAll(d.DestinationFolder, 0755); err != nil {
		out.Err = apperr.NewPlacementError(d.Source, d.DestinationPath, err)
		sink.WithError(out.Err).Errorf("Failed to create folder %s", d.DestinationFolder)
		return out
	}

	if d.Backs() {
		if err := backupFile(d.Source, d.BackupPath); err != nil {
			out.Err = apperr.NewBackupError(d.Source, d.BackupPath, err)
			sink.WithError(out.Err).Errorf("Backup of %s failed, not moving it", name)
			return out
		}
		out.BackedUp = true
		if e.settings.DryRun {
			sink.Warnf("[DRY RUN] Backup written despite dry run: %s", d.BackupPath)
		} else {
			sink.Infof("Backed up %s to %s", name, d.BackupPath)
		}
	}

	if !d.Moves() {
		sink.Infof("[DRY RUN] %s -> %s", name, folder)
		return out
	}

	overwrite := exists(d.DestinationPath)
	if overwrite {
		sink.Warnf("Overwriting existing %s", d.DestinationPath)
	}

	if err := moveFile(d.Source, d.DestinationPath); err != nil {
		out.Err = apperr.NewPlacementError(d.Source, d.DestinationPath, err)
		sink.WithError(out.Err).Errorf("Failed to move %s", name)
		return out
	}

	out.Moved = true
	out.Overwrote = overwrite
	sink.Infof("Moved %s -> %s (%s)", name, folder, humanize.Bytes(uint64(out.Size)))
	return out
}

// uniqueDestination finds a free name by adding a counter to the base name.
func uniqueDestination(path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if base == "" || strings.HasSuffix(base, string(filepath.Separator)) {
		// ".bashrc": the whole name is the stem
		base, ext = path, ""
	}

	for counter := 1; counter <= maxRenameAttempts; counter++ {
		candidate := fmt.Sprintf("%s_(%d)%s", base, counter, ext)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", apperr.Newf("no free name for %s after %d attempts", path, maxRenameAttempts)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
