package tree

// Kind is the closed node-kind enumeration supplied by the parser collaborator.
// The engine matches against these tags and never against a concrete grammar.
type Kind string

const (
	KindFile        Kind = "File"
	KindTypeDecl    Kind = "TypeDecl"
	KindInterface   Kind = "Interface"
	KindField       Kind = "Field"
	KindFunction    Kind = "Function"
	KindMethod      Kind = "Method"
	KindParam       Kind = "Param"
	KindBlock       Kind = "Block"
	KindFieldList   Kind = "FieldList"
	KindIf          Kind = "If"
	KindSwitch      Kind = "Switch"
	KindCall        Kind = "Call"
	KindReturn      Kind = "Return"
	KindAssign      Kind = "Assign"
	KindVar         Kind = "Var"
	KindConst       Kind = "Const"
	KindComment     Kind = "Comment"
	KindPlaceholder Kind = "Placeholder"
)

// Position locates a node in its source file.
type Position struct {
	Filepath  string `json:"filepath,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Node is a single vertex of a parsed-program tree.
// Trees are owned by the parser that produced them; the engine treats them
// as immutable during detection and only builds new trees when transforming.
type Node struct {
	Kind       Kind    `json:"kind"`
	Name       string  `json:"name,omitempty"`
	TypeText   string  `json:"type_text,omitempty"`
	Visibility string  `json:"visibility,omitempty"` // "public", "private" or empty
	Pos        Position `json:"pos"`
	Children   []*Node `json:"children,omitempty"`
}

// AddChild appends a child and returns the parent for chaining.
// Only tree builders (parser, templates, tests) call this; detection never does.
func (n *Node) AddChild(c *Node) *Node {
	n.Children = append(n.Children, c)
	return n
}

// Walk visits n and its subtree in pre-order. Returning false from visit
// stops descent into the current node's children but not the walk itself.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// Clone returns a deep copy of n. The copy shares no nodes with the original,
// so callers may mutate it freely.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := &Node{
		Kind:       n.Kind,
		Name:       n.Name,
		TypeText:   n.TypeText,
		Visibility: n.Visibility,
		Pos:        n.Pos,
	}
	if len(n.Children) > 0 {
		cp.Children = make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			cp.Children = append(cp.Children, Clone(c))
		}
	}
	return cp
}

// Equal reports whether two trees are structurally identical, ignoring
// source positions. Used by transform tests to check referential transparency.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Name != b.Name || a.TypeText != b.TypeText || a.Visibility != b.Visibility {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the subtree rooted at n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node) bool {
		total++
		return true
	})
	return total
}
