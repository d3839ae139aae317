// Package transform rewrites matched subtrees using registered templates.
// A template is a prebuilt tree with placeholder markers; applying it
// substitutes values discovered on the matched node and returns a freshly
// constructed tree, never mutating the original.
package transform

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"patlens/internal/pattern"
	"patlens/internal/tree"
)

// ErrTemplateNotFound signals that no template is registered under the
// requested name. The transformer degrades by returning the original node,
// favoring availability of the overall scan over an individual transform.
var ErrTemplateNotFound = errors.New("template not found")

// Placeholder markers substituted during template application.
const (
	MarkerName     = "$NAME$"     // the matched node's name
	MarkerType     = "$TYPE$"     // the matched node's declared type text
	MarkerBareType = "$BARETYPE$" // the type text stripped of pointer and slice markers
)

// Detector is the slice of the orchestrator the transformer needs.
type Detector interface {
	DetectInFile(path string) ([]pattern.Match, error)
}

// Transformer holds the template registry and applies templates to matches.
type Transformer struct {
	templates map[string]*tree.Node
	detector  Detector
	log       *zap.Logger
}

// NewTransformer creates a transformer. The detector collaborator is only
// needed for ApplyToFile; pass nil when applying templates to existing
// matches directly.
func NewTransformer(d Detector, log *zap.Logger) *Transformer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transformer{
		templates: make(map[string]*tree.Node),
		detector:  d,
		log:       log,
	}
}

// RegisterTemplate registers a template tree under a name, normally the name
// of the pattern whose matches it rewrites. Registration must complete
// before concurrent use.
func (t *Transformer) RegisterTemplate(name string, tpl *tree.Node) {
	t.templates[name] = tpl
}

// ApplyTemplate produces a new tree from the named template with placeholder
// slots substituted from the matched node. The original tree is never
// touched, so repeated application to the same match yields structurally
// equal output. An unknown template name returns the original node unchanged
// together with ErrTemplateNotFound.
func (t *Transformer) ApplyTemplate(m pattern.Match, templateName string) (*tree.Node, error) {
	tpl, ok := t.templates[templateName]
	if !ok {
		t.log.Warn("template not found, returning node unchanged",
			zap.String("template", templateName),
			zap.String("pattern", m.PatternName))
		return m.Node, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateName)
	}

	out := tree.Clone(tpl)
	subs := substitutions(m.Node)
	tree.Walk(out, func(n *tree.Node) bool {
		n.Name = replaceMarkers(n.Name, subs)
		n.TypeText = replaceMarkers(n.TypeText, subs)
		return true
	})
	return out, nil
}

// ApplyToFile detects patternName in the file, applies the template
// registered under the same name to the best match and writes the rendered
// source to outPath. Write failures are surfaced to the caller, not retried.
func (t *Transformer) ApplyToFile(path, patternName, outPath string) error {
	if t.detector == nil {
		return fmt.Errorf("transformer has no detector collaborator")
	}

	matches, err := t.detector.DetectInFile(path)
	if err != nil {
		return err
	}

	var best *pattern.Match
	for i := range matches {
		if matches[i].PatternName == patternName {
			best = &matches[i]
			break // matches are ordered by confidence
		}
	}
	if best == nil {
		return fmt.Errorf("pattern %q not detected in %s", patternName, path)
	}

	rewritten, err := t.ApplyTemplate(*best, patternName)
	if err != nil {
		return err
	}

	text := Render(rewritten)
	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write transformed output: %w", err)
	}

	t.log.Info("transform applied",
		zap.String("pattern", patternName),
		zap.String("source", path),
		zap.String("output", outPath))
	return nil
}

func substitutions(n *tree.Node) map[string]string {
	subs := map[string]string{
		MarkerName:     "",
		MarkerType:     "",
		MarkerBareType: "",
	}
	if n != nil {
		subs[MarkerName] = n.Name
		subs[MarkerType] = n.TypeText
		bare := strings.TrimSpace(n.TypeText)
		bare = strings.TrimPrefix(bare, "*")
		bare = strings.TrimPrefix(bare, "[]")
		subs[MarkerBareType] = bare
	}
	return subs
}

func replaceMarkers(s string, subs map[string]string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	for marker, value := range subs {
		s = strings.ReplaceAll(s, marker, value)
	}
	return s
}
