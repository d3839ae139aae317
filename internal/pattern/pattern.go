package pattern

import (
	"regexp"

	"patlens/internal/tree"
)

// Signature declares a tree shape to match: a node kind, an optional
// name pattern, required textual properties and child shapes.
type Signature struct {
	Kind        tree.Kind
	NamePattern *regexp.Regexp    // regexp search over the node name, nil to skip
	Properties  map[string]string // property name -> required value, resolved by extractors
	Children    []Signature
	Optional    bool // an optional child signature is vacuously satisfied when absent
}

// Heuristic is a named, weighted, side-effect-free predicate over a node.
// Heuristics capture evidence that is not expressible as pure tree shape.
type Heuristic struct {
	Name        string
	Description string
	Weight      float64 // in (0, 1]; weights need not sum to 1
	Check       func(*tree.Node) bool
}

// Definition is an immutable description of one recognizable pattern.
// Built once at registry setup and shared read-only across detection runs.
type Definition struct {
	Name          string
	Description   string
	Signatures    []Signature
	Heuristics    []Heuristic
	MinConfidence float64 // in [0, 1]
}

// Match records that a node cleared a definition's confidence threshold.
// Never mutated after creation.
type Match struct {
	PatternName       string     `json:"pattern"`
	Node              *tree.Node `json:"-"`
	NodeName          string     `json:"node_name,omitempty"`
	Confidence        float64    `json:"confidence"`
	MatchedSignatures int        `json:"matched_signatures"`
	FiredHeuristics   []string   `json:"fired_heuristics,omitempty"`
	Pos               tree.Position `json:"pos"`
}

// MustNamePattern compiles a name pattern, panicking on a bad expression.
// Definitions are built from literals at startup, so a failure here is a
// programming error, not input.
func MustNamePattern(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}
