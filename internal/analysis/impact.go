// Package analysis relates detection results to source changes, answering
// which recognized pattern instances a diff actually touches.
package analysis

import (
	"strings"

	"patlens/internal/git"
	"patlens/internal/pattern"
	"patlens/internal/report"
	"patlens/internal/tree"
)

// ImpactReport splits a scan's matches by their relation to a change set.
type ImpactReport struct {
	// Touched holds matches whose source span overlaps a changed line.
	Touched []pattern.Match

	// Adjacent holds matches living in a changed file without overlapping
	// any changed line.
	Adjacent []pattern.Match

	// UnmatchedFiles lists changed files the scan found no patterns in.
	UnmatchedFiles []string
}

// AnalyzeImpact classifies every match in the report against the change set.
func AnalyzeImpact(rep *report.Report, changes []git.ChangedFile) *ImpactReport {
	out := &ImpactReport{}

	matched := make(map[string]bool, len(changes))
	for _, f := range rep.Files {
		change, ok := lookupChange(changes, f.Path)
		if !ok {
			continue
		}
		if len(f.Matches) > 0 {
			matched[change.Path] = true
		}
		for _, m := range f.Matches {
			if overlaps(m.Pos, change.ChangedLines) {
				out.Touched = append(out.Touched, m)
			} else {
				out.Adjacent = append(out.Adjacent, m)
			}
		}
	}

	for _, c := range changes {
		if !matched[c.Path] {
			out.UnmatchedFiles = append(out.UnmatchedFiles, c.Path)
		}
	}
	return out
}

// lookupChange finds the change entry for a scanned path. Scan paths are
// rooted at the project directory while git paths are repo-relative, so a
// suffix match backs up the exact one.
func lookupChange(changes []git.ChangedFile, path string) (git.ChangedFile, bool) {
	for _, c := range changes {
		if c.Path == path || strings.HasSuffix(path, "/"+c.Path) {
			return c, true
		}
	}
	return git.ChangedFile{}, false
}

func overlaps(pos tree.Position, lines []int) bool {
	for _, line := range lines {
		if line >= pos.StartLine && line <= pos.EndLine {
			return true
		}
	}
	return false
}
