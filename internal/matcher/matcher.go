// Package matcher evaluates declarative signatures against parsed-program
// trees. Matching is boolean and fail-fast; partial credit across a
// definition's signatures is the scorer's job, not the matcher's.
package matcher

import (
	"strconv"

	"go.uber.org/zap"

	"patlens/internal/pattern"
	"patlens/internal/tree"
)

// PropertyExtractor resolves one declared property against a node.
// It returns the node's value for the property and whether the property
// is applicable to the node at all.
type PropertyExtractor func(*tree.Node) (string, bool)

// Matcher holds the configurable parts of signature matching: the set of
// transparent kinds through which child search may descend one extra level,
// and the property extractor registry.
type Matcher struct {
	transparent map[tree.Kind]bool
	extractors  map[string]PropertyExtractor
	log         *zap.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithTransparentKinds replaces the default transparent kind set.
func WithTransparentKinds(kinds ...tree.Kind) Option {
	return func(m *Matcher) {
		m.transparent = make(map[tree.Kind]bool, len(kinds))
		for _, k := range kinds {
			m.transparent[k] = true
		}
	}
}

// WithExtractor registers a property extractor. Declared properties with no
// registered extractor fail closed, so callers extending the property
// vocabulary must register the extractor before detection starts.
func WithExtractor(name string, fn PropertyExtractor) Option {
	return func(m *Matcher) {
		m.extractors[name] = fn
	}
}

// WithLogger injects a logger for diagnostics. Absence never changes results.
func WithLogger(log *zap.Logger) Option {
	return func(m *Matcher) {
		m.log = log
	}
}

// New creates a Matcher with the default transparent kinds (statement blocks
// and field lists) and the built-in property extractors.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		transparent: map[tree.Kind]bool{
			tree.KindBlock:     true,
			tree.KindFieldList: true,
		},
		extractors: map[string]PropertyExtractor{
			"visibility": func(n *tree.Node) (string, bool) {
				return n.Visibility, n.Visibility != ""
			},
			"type_text": func(n *tree.Node) (string, bool) {
				return n.TypeText, n.TypeText != ""
			},
			"has_children": func(n *tree.Node) (string, bool) {
				return strconv.FormatBool(len(n.Children) > 0), true
			},
			"child_count": func(n *tree.Node) (string, bool) {
				return strconv.Itoa(len(n.Children)), true
			},
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Matches reports whether node satisfies sig.
//
// An optional signature is vacuously satisfied by an absent node; a required
// one is not. The kind check is fail-fast. A name pattern fails closed on
// nameless nodes. Every required child signature must be satisfied by at
// least one direct child, falling back one level into the children of any
// transparent direct child.
func (m *Matcher) Matches(node *tree.Node, sig pattern.Signature) bool {
	if node == nil {
		return sig.Optional
	}

	if node.Kind != sig.Kind {
		return false
	}

	if sig.NamePattern != nil {
		if node.Name == "" {
			return false
		}
		if !sig.NamePattern.MatchString(node.Name) {
			return false
		}
	}

	for prop, want := range sig.Properties {
		if !m.propertyHolds(node, prop, want) {
			return false
		}
	}

	for _, child := range sig.Children {
		if !m.childSatisfied(node, child) {
			return false
		}
	}

	return true
}

// MatchedCount evaluates each signature independently against node and
// returns how many hold. The scorer turns this into the structural ratio.
func (m *Matcher) MatchedCount(node *tree.Node, sigs []pattern.Signature) int {
	count := 0
	for _, s := range sigs {
		if m.Matches(node, s) {
			count++
		}
	}
	return count
}

func (m *Matcher) propertyHolds(node *tree.Node, prop, want string) bool {
	extract, ok := m.extractors[prop]
	if !ok {
		m.log.Warn("signature declares unknown property, failing closed",
			zap.String("property", prop),
			zap.String("kind", string(node.Kind)))
		return false
	}
	got, applicable := extract(node)
	if !applicable {
		return false
	}
	return got == want
}

// childSatisfied searches node's direct children for one satisfying sig.
// When no direct child qualifies, the search descends one extra level into
// the children of any direct child whose kind is transparent (a statement
// block or field list), modeling qualifying parts nested inside a body.
// First match wins; there is no backtracking across siblings.
func (m *Matcher) childSatisfied(node *tree.Node, sig pattern.Signature) bool {
	for _, c := range node.Children {
		if m.Matches(c, sig) {
			return true
		}
	}
	for _, c := range node.Children {
		if !m.transparent[c.Kind] {
			continue
		}
		for _, gc := range c.Children {
			if m.Matches(gc, sig) {
				return true
			}
		}
	}
	return sig.Optional
}
