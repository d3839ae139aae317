// Package report aggregates per-file detection results into a project-level
// summary. Reports are derived, recomputable values, never authoritative state.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"patlens/internal/pattern"
)

// FileResult holds the outcome of one file's parse-then-detect pipeline.
// A file that failed to parse contributes zero matches and sets ParseError.
type FileResult struct {
	Path                  string          `json:"path" yaml:"path"`
	Matches               []pattern.Match `json:"matches,omitempty" yaml:"matches,omitempty"`
	RefactoringCandidates int             `json:"refactoring_candidates" yaml:"refactoring_candidates"`
	ParseError            string          `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
}

// PatternSummary is the per-pattern rollup across all scanned files.
type PatternSummary struct {
	Pattern       string  `json:"pattern" yaml:"pattern"`
	Count         int     `json:"count" yaml:"count"`
	AvgConfidence float64 `json:"avg_confidence" yaml:"avg_confidence"`
}

// Report is the project-level detection report.
type Report struct {
	GeneratedAt           string           `json:"generated_at" yaml:"generated_at"`
	Root                  string           `json:"root" yaml:"root"`
	FilesScanned          int              `json:"files_scanned" yaml:"files_scanned"`
	ParseFailures         int              `json:"parse_failures" yaml:"parse_failures"`
	TotalDetections       int              `json:"total_detections" yaml:"total_detections"`
	RefactoringCandidates int              `json:"refactoring_candidates" yaml:"refactoring_candidates"`
	Patterns              []PatternSummary `json:"patterns" yaml:"patterns"`
	Files                 []FileResult     `json:"files" yaml:"files"`
}

// Compile folds per-file results into a Report. Files are ordered by path so
// output is deterministic regardless of the concurrent scan's completion order.
func Compile(root string, files []FileResult) *Report {
	sorted := make([]FileResult, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	r := &Report{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Root:        root,
		Files:       sorted,
	}

	counts := make(map[string]int)
	sums := make(map[string]float64)
	for _, f := range sorted {
		r.FilesScanned++
		if f.ParseError != "" {
			r.ParseFailures++
			continue
		}
		r.RefactoringCandidates += f.RefactoringCandidates
		r.TotalDetections += len(f.Matches)
		for _, m := range f.Matches {
			counts[m.PatternName]++
			sums[m.PatternName] += m.Confidence
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.Patterns = append(r.Patterns, PatternSummary{
			Pattern:       name,
			Count:         counts[name],
			AvgConfidence: sums[name] / float64(counts[name]),
		})
	}

	return r
}

// TopMatches returns the n highest-confidence matches across the whole report,
// ties broken by file path then positional order.
func (r *Report) TopMatches(n int) []pattern.Match {
	var all []pattern.Match
	for _, f := range r.Files {
		all = append(all, f.Matches...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Confidence > all[j].Confidence })
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Save writes the report to path, as YAML when the extension is .yaml/.yml
// and as indented JSON otherwise.
func (r *Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return err
	}
	if !strings.HasSuffix(string(data), "\n") {
		data = append(data, '\n')
	}

	return os.WriteFile(path, data, 0644)
}
