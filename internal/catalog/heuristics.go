package catalog

import (
	"strings"

	"patlens/internal/tree"
)

// Shared node predicates the built-in and declarative heuristics are built
// from. All of them are pure and total over well-formed trees.

func nameContains(substr string) func(*tree.Node) bool {
	lower := strings.ToLower(substr)
	return func(n *tree.Node) bool {
		return strings.Contains(strings.ToLower(n.Name), lower)
	}
}

func hasFieldNamed(name string) func(*tree.Node) bool {
	lower := strings.ToLower(name)
	return func(n *tree.Node) bool {
		found := false
		tree.Walk(n, func(c *tree.Node) bool {
			if c.Kind == tree.KindField && strings.ToLower(c.Name) == lower {
				found = true
				return false
			}
			return !found
		})
		return found
	}
}

func hasMethodPrefix(prefix string) func(*tree.Node) bool {
	return func(n *tree.Node) bool {
		found := false
		tree.Walk(n, func(c *tree.Node) bool {
			if c.Kind == tree.KindMethod && strings.HasPrefix(c.Name, prefix) {
				found = true
				return false
			}
			return !found
		})
		return found
	}
}

func hasChildKind(kind tree.Kind) func(*tree.Node) bool {
	return func(n *tree.Node) bool {
		for _, c := range n.Children {
			if c.Kind == kind {
				return true
			}
		}
		return false
	}
}

func childCountAtLeast(min int) func(*tree.Node) bool {
	return func(n *tree.Node) bool {
		return len(n.Children) >= min
	}
}

func returnsNamedType() func(*tree.Node) bool {
	return func(n *tree.Node) bool {
		t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n.TypeText), "*"))
		if t == "" {
			return false
		}
		return t[0] >= 'A' && t[0] <= 'Z'
	}
}

func bodyContainsKind(kind tree.Kind) func(*tree.Node) bool {
	return func(n *tree.Node) bool {
		for _, c := range n.Children {
			if c.Kind != tree.KindBlock {
				continue
			}
			found := false
			tree.Walk(c, func(s *tree.Node) bool {
				if s.Kind == kind {
					found = true
					return false
				}
				return !found
			})
			if found {
				return true
			}
		}
		return false
	}
}
