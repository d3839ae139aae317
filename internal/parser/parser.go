// Package parser adapts concrete source grammars onto the generic node
// contract the detection engine matches against. The engine never sees a
// language's own syntax tree, only tree.Node values with closed kind tags.
package parser

import (
	"patlens/internal/tree"
)

// Parser produces one parsed-program tree per source file.
type Parser interface {
	ParseFile(path string) (*tree.Node, error)
}
