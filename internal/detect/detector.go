// Package detect owns the pattern registry and orchestrates detection:
// walking parsed trees, scoring every node against every registered
// definition and aggregating project-wide reports.
package detect

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"patlens/internal/crawler"
	"patlens/internal/matcher"
	"patlens/internal/pattern"
	"patlens/internal/report"
	"patlens/internal/tree"
)

// Parser is the minimal contract the detector needs from the external
// parser/analyzer collaborator: one parsed-program tree per source file.
type Parser interface {
	ParseFile(path string) (*tree.Node, error)
}

// Hooks receives detection events. Hooks are optional observability
// collaborators; their absence never changes detection results.
type Hooks interface {
	OnMatch(m pattern.Match)
	OnParseFailure(path string, err error)
}

// NopHooks is the default no-op Hooks implementation.
type NopHooks struct{}

func (NopHooks) OnMatch(pattern.Match)        {}
func (NopHooks) OnParseFailure(string, error) {}

// Detector holds the registered pattern definitions and runs detection.
// Registration must complete before concurrent detection begins; once
// published, the registry is read-only and safe to share across workers.
type Detector struct {
	defs    []*pattern.Definition
	matcher *matcher.Matcher
	parser  Parser
	log     *zap.Logger
	hooks   Hooks
	workers int
}

// Option configures a Detector.
type Option func(*Detector)

// WithMatcher replaces the default matcher, e.g. to change the transparent
// kind set or register extra property extractors.
func WithMatcher(m *matcher.Matcher) Option {
	return func(d *Detector) { d.matcher = m }
}

// WithLogger injects a structured logger for detection progress and errors.
func WithLogger(log *zap.Logger) Option {
	return func(d *Detector) { d.log = log }
}

// WithHooks injects detection event hooks.
func WithHooks(h Hooks) Option {
	return func(d *Detector) { d.hooks = h }
}

// WithWorkers sets the number of concurrent file workers for project scans.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.workers = n
		}
	}
}

// NewDetector creates a detector backed by the given parser collaborator.
func NewDetector(p Parser, opts ...Option) *Detector {
	d := &Detector{
		parser:  p,
		matcher: matcher.New(),
		log:     zap.NewNop(),
		hooks:   NopHooks{},
		workers: 4,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a pattern definition to the registry. Definitions are
// validated once here and never mutated afterwards.
func (d *Detector) Register(def *pattern.Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("pattern definition must have a name")
	}
	if def.MinConfidence < 0 || def.MinConfidence > 1 {
		return fmt.Errorf("pattern %q: min confidence %f outside [0,1]", def.Name, def.MinConfidence)
	}
	for _, h := range def.Heuristics {
		if h.Weight <= 0 || h.Weight > 1 {
			return fmt.Errorf("pattern %q: heuristic %q weight %f outside (0,1]", def.Name, h.Name, h.Weight)
		}
		if h.Check == nil {
			return fmt.Errorf("pattern %q: heuristic %q has no check function", def.Name, h.Name)
		}
	}
	d.defs = append(d.defs, def)
	return nil
}

// Definitions returns the registered definitions in registration order.
func (d *Detector) Definitions() []*pattern.Definition {
	return d.defs
}

// Detect tests every node of the tree against every registered definition
// in pre-order and returns all matches that clear their definition's
// threshold, sorted by descending confidence with ties broken by discovery
// order. Detection is purely functional over its inputs, so repeated runs
// over the same tree yield identical sequences.
func (d *Detector) Detect(root *tree.Node) []pattern.Match {
	var matches []pattern.Match

	tree.Walk(root, func(n *tree.Node) bool {
		for _, def := range d.defs {
			// A definition with neither signatures nor heuristics is
			// undecidable and must not match.
			if len(def.Signatures) == 0 && len(def.Heuristics) == 0 {
				continue
			}
			conf, matched, fired := d.Score(n, def)
			if conf < def.MinConfidence {
				continue
			}
			m := pattern.Match{
				PatternName:       def.Name,
				Node:              n,
				NodeName:          n.Name,
				Confidence:        conf,
				MatchedSignatures: matched,
				FiredHeuristics:   fired,
				Pos:               n.Pos,
			}
			matches = append(matches, m)
			d.hooks.OnMatch(m)
		}
		return true
	})

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// DetectInFile parses a single file through the external collaborator and
// runs detection over the resulting tree.
func (d *Detector) DetectInFile(path string) ([]pattern.Match, error) {
	root, err := d.parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return d.Detect(root), nil
}

// AnalyzeProject scans every eligible file under root concurrently and folds
// the per-file results into a detection report. A file that fails to parse
// contributes zero matches and is counted as a parse failure; it never aborts
// the scan. The context only stops scheduling of new files; in-flight
// single-file detections run to completion.
func (d *Detector) AnalyzeProject(ctx context.Context, root string) (*report.Report, error) {
	paths, err := crawler.NewCrawler().Collect(root)
	if err != nil {
		return nil, fmt.Errorf("failed to crawl project: %w", err)
	}

	var (
		mu      sync.Mutex
		results []report.FileResult
	)
	add := func(fr report.FileResult) {
		mu.Lock()
		results = append(results, fr)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, path := range paths {
		path := path
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			add(d.analyzeFile(path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := report.Compile(root, results)
	d.log.Info("project scan complete",
		zap.String("root", root),
		zap.Int("files", rep.FilesScanned),
		zap.Int("parse_failures", rep.ParseFailures),
		zap.Int("detections", rep.TotalDetections))
	return rep, nil
}

func (d *Detector) analyzeFile(path string) report.FileResult {
	root, err := d.parser.ParseFile(path)
	if err != nil {
		d.log.Warn("parse failure, skipping file", zap.String("path", path), zap.Error(err))
		d.hooks.OnParseFailure(path, err)
		return report.FileResult{Path: path, ParseError: err.Error()}
	}
	return report.FileResult{
		Path:                  path,
		Matches:               d.Detect(root),
		RefactoringCandidates: CountRefactoringCandidates(root),
	}
}

// CountRefactoringCandidates counts procedure nodes whose body directly
// contains a conditional-dispatch construct (if or switch). This is a
// heuristic scan independent of the registered patterns, reported in its
// own counter rather than as matches.
func CountRefactoringCandidates(root *tree.Node) int {
	count := 0
	tree.Walk(root, func(n *tree.Node) bool {
		if n.Kind != tree.KindFunction && n.Kind != tree.KindMethod {
			return true
		}
		for _, c := range n.Children {
			if c.Kind != tree.KindBlock {
				continue
			}
			for _, stmt := range c.Children {
				if stmt.Kind == tree.KindIf || stmt.Kind == tree.KindSwitch {
					count++
					return true
				}
			}
		}
		return true
	})
	return count
}
