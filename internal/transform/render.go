package transform

import (
	"fmt"
	"strings"

	"patlens/internal/tree"
)

// Render turns a tree back into Go-shaped source text. It is deliberately
// minimal: templates are small and rendering only has to cover the kinds
// templates are built from, not arbitrary programs.
func Render(n *tree.Node) string {
	var b strings.Builder
	renderNode(&b, n, 0)
	return b.String()
}

func renderNode(b *strings.Builder, n *tree.Node, depth int) {
	if n == nil {
		return
	}
	ind := strings.Repeat("\t", depth)

	switch n.Kind {
	case tree.KindFile:
		if n.Name != "" {
			fmt.Fprintf(b, "package %s\n\n", n.Name)
		}
		for _, c := range n.Children {
			renderNode(b, c, depth)
			b.WriteString("\n")
		}

	case tree.KindComment:
		fmt.Fprintf(b, "%s// %s\n", ind, n.Name)

	case tree.KindTypeDecl:
		fmt.Fprintf(b, "%stype %s struct {\n", ind, n.Name)
		for _, c := range n.Children {
			renderFields(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", ind)

	case tree.KindInterface:
		fmt.Fprintf(b, "%stype %s interface {\n", ind, n.Name)
		for _, c := range n.Children {
			renderFields(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", ind)

	case tree.KindFunction, tree.KindMethod:
		fmt.Fprintf(b, "%sfunc %s(%s) %s{\n", ind, n.Name, renderParams(n), renderResult(n))
		for _, c := range n.Children {
			if c.Kind == tree.KindBlock {
				for _, stmt := range c.Children {
					renderNode(b, stmt, depth+1)
				}
			}
		}
		fmt.Fprintf(b, "%s}\n", ind)

	case tree.KindVar:
		fmt.Fprintf(b, "%svar %s %s\n", ind, n.Name, n.TypeText)

	case tree.KindConst:
		fmt.Fprintf(b, "%sconst %s = %s\n", ind, n.Name, n.TypeText)

	case tree.KindAssign:
		fmt.Fprintf(b, "%s%s = %s\n", ind, n.Name, n.TypeText)

	case tree.KindCall:
		fmt.Fprintf(b, "%s%s()\n", ind, n.Name)

	case tree.KindReturn:
		fmt.Fprintf(b, "%sreturn %s\n", ind, n.Name)

	case tree.KindIf:
		fmt.Fprintf(b, "%sif %s {\n", ind, n.Name)
		for _, c := range n.Children {
			if c.Kind == tree.KindBlock {
				for _, stmt := range c.Children {
					renderNode(b, stmt, depth+1)
				}
			}
		}
		fmt.Fprintf(b, "%s}\n", ind)

	default:
		// Unhandled kinds render as a marker comment rather than silently
		// dropping the node.
		fmt.Fprintf(b, "%s// <%s %s>\n", ind, n.Kind, n.Name)
	}
}

func renderFields(b *strings.Builder, n *tree.Node, depth int) {
	ind := strings.Repeat("\t", depth)
	switch n.Kind {
	case tree.KindFieldList:
		for _, c := range n.Children {
			renderFields(b, c, depth)
		}
	case tree.KindField:
		fmt.Fprintf(b, "%s%s %s\n", ind, n.Name, n.TypeText)
	case tree.KindFunction, tree.KindMethod:
		fmt.Fprintf(b, "%s%s(%s) %s\n", ind, n.Name, renderParams(n), strings.TrimSpace(renderResult(n)))
	}
}

func renderParams(n *tree.Node) string {
	var parts []string
	for _, c := range n.Children {
		if c.Kind == tree.KindParam {
			parts = append(parts, strings.TrimSpace(c.Name+" "+c.TypeText))
		}
	}
	return strings.Join(parts, ", ")
}

func renderResult(n *tree.Node) string {
	if n.TypeText == "" {
		return ""
	}
	return n.TypeText + " "
}
