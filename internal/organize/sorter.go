// Package organize runs sort passes: it lists the target folder, classifies
// each eligible file and places it into its category folder.
package organize

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"filesorter/internal/classify"
	"filesorter/internal/config"
	apperr "filesorter/internal/errors"
	"filesorter/internal/log"
	"filesorter/internal/rules"
	"filesorter/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// Skip reasons recorded in reports.
const (
	SkipDirectory  = "directory"
	SkipHidden     = "hidden"
	SkipIgnored    = "ignored"
	SkipUnreadable = "unreadable"
)

// Sorter runs sort passes over settings.TargetFolder.
type Sorter struct {
	settings *config.Settings
	sink     log.Sink
}

// NewSorter creates a Sorter. A nil sink discards all events.
func NewSorter(settings *config.Settings, sink log.Sink) *Sorter {
	if sink == nil {
		sink = log.Discard()
	}
	return &Sorter{settings: settings, sink: sink}
}

// SortFiles runs one sort pass.
func SortFiles(ctx context.Context, settings *config.Settings, sink log.Sink) (*types.Report, error) {
	return NewSorter(settings, sink).Run(ctx)
}

// pass is the state shared by every file of one sort pass: one rule
// snapshot, one run ID.
type pass struct {
	sink       log.Sink
	report     *types.Report
	classifier *classify.Classifier
	engine     *Engine
	candidates []types.Candidate
}

// Run sorts the target folder once. Configuration and rule errors are
// returned before any file is touched; per-file failures are recorded in
// the report. A cancelled ctx stops the pass between two files.
func (s *Sorter) Run(ctx context.Context) (*types.Report, error) {
	p, err := s.begin()
	if err != nil {
		return nil, err
	}

	if s.settings.DryRun {
		p.sink.Infof("Dry run: files will not be moved")
	}

	for _, cand := range p.candidates {
		if err := ctx.Err(); err != nil {
			p.sink.Warnf("Sort pass interrupted after %d of %d files", len(p.report.Outcomes), len(p.candidates))
			return p.report, err
		}

		d := p.decide(cand)
		p.report.Add(p.engine.Apply(d))
	}

	r := p.report
	p.sink.Infof("Sort pass complete: %d moved (%s), %d simulated, %d skipped, %d failed",
		r.Moved(), humanize.Bytes(uint64(r.BytesMoved())), r.Simulated(), len(r.Skipped), r.Failed())
	return r, nil
}

// Plan lists what Run would do, without moving or copying anything.
func (s *Sorter) Plan(ctx context.Context) ([]types.Decision, error) {
	p, err := s.begin()
	if err != nil {
		return nil, err
	}

	decisions := make([]types.Decision, 0, len(p.candidates))
	for _, cand := range p.candidates {
		if err := ctx.Err(); err != nil {
			return decisions, err
		}
		decisions = append(decisions, p.decide(cand))
	}
	return decisions, nil
}

// Engine returns a placement engine bound to the sorter's settings.
func (s *Sorter) Engine() *Engine {
	return NewEngine(s.settings, s.sink)
}

// begin loads the rules, checks the target folder and collects candidates.
func (s *Sorter) begin() (*pass, error) {
	if s.settings == nil {
		return nil, apperr.NewConfigError("settings are required", "", apperr.ConfigNotSet, nil)
	}

	runID := uuid.NewString()
	sink := s.sink.With(log.F("run", runID))

	rs, err := rules.Load(s.settings.SortRulesFile)
	if err != nil {
		return nil, err
	}

	target := s.settings.TargetFolder
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NewConfigError("target folder does not exist", "target_folder", apperr.ConfigNotFound, err)
		}
		return nil, apperr.NewConfigError("cannot access target folder", "target_folder", apperr.InvalidConfig, err)
	}
	if !info.IsDir() {
		return nil, apperr.NewConfigError("target folder is not a directory", "target_folder", apperr.InvalidConfig, nil)
	}

	matchers, err := s.settings.IgnoreMatchers()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, apperr.NewFileError("failed to list target folder", target, apperr.FileAccessDenied, err)
	}

	sink.Infof("Sorting %s with %d rules from %s", target, rs.Len(), s.settings.SortRulesFile)
	if s.settings.CreateDateFolders {
		sink.Debugf("create_date_folders is set but has no effect")
	}

	p := &pass{
		sink:       sink,
		report:     &types.Report{RunID: runID, DryRun: s.settings.DryRun},
		classifier: classify.New(rs, classify.WithContentSniffing(s.settings.SniffContent)),
		engine:     NewEngine(s.settings, sink),
	}

	// os.ReadDir returns entries sorted by name
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(target, name)

		if reason := s.skipReason(name, path, matchers); reason != "" {
			sink.With(log.F("file", name)).Debugf("Skipping %s (%s)", name, reason)
			p.report.Skip(path, reason)
			continue
		}
		p.candidates = append(p.candidates, types.NewCandidate(path))
	}
	return p, nil
}

func (s *Sorter) skipReason(name, path string, matchers []glob.Glob) string {
	if s.settings.SkipHidden && strings.HasPrefix(name, ".") {
		return SkipHidden
	}
	for _, m := range matchers {
		if m.Match(name) {
			return SkipIgnored
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// dangling symlink: still sorted, into the fallback folder
			return ""
		}
		return SkipUnreadable
	}
	if info.IsDir() {
		return SkipDirectory
	}
	return ""
}

// decide classifies cand and plans its placement.
func (p *pass) decide(cand types.Candidate) types.Decision {
	sink := p.sink.With(log.F("file", cand.Name))
	m := p.classifier.Classify(cand)
	if m.Ineligible {
		sink.Warnf("%s is not a regular file, using %s", cand.Name, m.Target)
	} else {
		sink.Debugf("Classified %s as %s (by %s, mime=%q, ext=%q)", cand.Name, m.Target, m.By, m.MIME, m.Extension)
	}

	d := p.engine.Plan(cand, m.Target)
	d.Category = m.Category
	return d
}
