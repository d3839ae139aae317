// Package pipeline orchestrates the scan, persist and compare flow behind
// the sync command: every run is stored, diffed against the previous scan of
// the same root and, when a base ref is given, related to the git changes.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"patlens/internal/analysis"
	"patlens/internal/git"
	"patlens/internal/pattern"
	"patlens/internal/report"
	"patlens/internal/storage"
)

// Scanner produces a detection report for a project root.
type Scanner interface {
	AnalyzeProject(ctx context.Context, root string) (*report.Report, error)
}

// Sync runs scans and tracks how detections move between them.
type Sync struct {
	scanner Scanner
	store   storage.Store
	log     *zap.Logger
}

// NewSync creates a sync pipeline. A nil logger is replaced with a nop.
func NewSync(scanner Scanner, store storage.Store, log *zap.Logger) *Sync {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sync{scanner: scanner, store: store, log: log}
}

// Diff describes how detections moved between two scans of the same root.
type Diff struct {
	New      []pattern.Match
	Resolved []pattern.Match
}

// Result carries everything one sync run produced.
type Result struct {
	ScanID int64
	Report *report.Report

	// Diff is nil on the first scan of a root.
	Diff *Diff

	// Impact is nil when no base ref was given or git was unavailable.
	Impact *analysis.ImpactReport
}

// Run scans root, persists the report and compares it against the most
// recent stored scan of the same root. When baseRef is non-empty the
// detections are additionally related to the git diff against it.
func (s *Sync) Run(ctx context.Context, root, baseRef string) (*Result, error) {
	rep, err := s.scanner.AnalyzeProject(ctx, root)
	if err != nil {
		return nil, err
	}

	previous, err := s.latestScan(ctx, rep.Root)
	if err != nil {
		s.log.Warn("could not load previous scan", zap.Error(err))
	}

	id, err := s.store.SaveScan(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("failed to persist scan: %w", err)
	}
	s.log.Info("scan persisted",
		zap.Int64("scan_id", id),
		zap.Int("detections", rep.TotalDetections))

	res := &Result{ScanID: id, Report: rep}
	if previous != nil {
		res.Diff = diffReports(previous, rep)
	}

	if baseRef != "" {
		changes, err := git.ChangedFiles(root, baseRef)
		if err != nil {
			s.log.Warn("impact analysis skipped",
				zap.String("base", baseRef), zap.Error(err))
		} else {
			res.Impact = analysis.AnalyzeImpact(rep, changes)
		}
	}
	return res, nil
}

// latestScan finds the newest stored report for the root, or nil.
func (s *Sync) latestScan(ctx context.Context, root string) (*report.Report, error) {
	scans, err := s.store.ListScans(ctx)
	if err != nil {
		return nil, err
	}
	for _, sc := range scans {
		if sc.Root == root {
			return s.store.GetScan(ctx, sc.ID)
		}
	}
	return nil, nil
}

func diffReports(prev, curr *report.Report) *Diff {
	d := &Diff{}
	prevSet := matchSet(prev)
	currSet := matchSet(curr)

	for _, f := range curr.Files {
		for _, m := range f.Matches {
			if !prevSet[matchKey(m)] {
				d.New = append(d.New, m)
			}
		}
	}
	for _, f := range prev.Files {
		for _, m := range f.Matches {
			if !currSet[matchKey(m)] {
				d.Resolved = append(d.Resolved, m)
			}
		}
	}
	return d
}

func matchSet(r *report.Report) map[string]bool {
	set := make(map[string]bool)
	for _, f := range r.Files {
		for _, m := range f.Matches {
			set[matchKey(m)] = true
		}
	}
	return set
}

// matchKey identifies a match across scans. Line numbers shift between
// commits, so identity is pattern, file and node name.
func matchKey(m pattern.Match) string {
	return m.PatternName + "\x00" + m.Pos.Filepath + "\x00" + m.NodeName
}
