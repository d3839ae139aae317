package parser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"patlens/internal/tree"
)

// GoParser parses Go source through tree-sitter and maps the concrete
// grammar onto the generic kind enumeration.
type GoParser struct{}

// NewGoParser creates a Go parser.
func NewGoParser() *GoParser {
	return &GoParser{}
}

// ParseFile reads and parses a single Go source file.
func (p *GoParser) ParseFile(path string) (*tree.Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return p.Parse(src, path)
}

// Parse parses Go source bytes into a generic tree. The path is only used
// for position metadata.
func (p *GoParser) Parse(src []byte, path string) (*tree.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	st, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c := &converter{src: src, path: path}
	root := &tree.Node{
		Kind: tree.KindFile,
		Name: c.packageName(st.RootNode()),
		Pos:  c.pos(st.RootNode()),
	}
	root.Children = c.convertChildren(st.RootNode())
	return root, nil
}

type converter struct {
	src  []byte
	path string
}

func (c *converter) packageName(root *sitter.Node) string {
	q, _ := sitter.NewQuery([]byte(`(package_clause (package_identifier) @pkg)`), golang.GetLanguage())
	qc := sitter.NewQueryCursor()
	qc.Exec(q, root)
	if m, ok := qc.NextMatch(); ok && len(m.Captures) > 0 {
		return m.Captures[0].Node.Content(c.src)
	}
	return ""
}

func (c *converter) pos(n *sitter.Node) tree.Position {
	return tree.Position{
		Filepath:  c.path,
		StartLine: int(n.StartPoint().Row + 1),
		EndLine:   int(n.EndPoint().Row + 1),
	}
}

// convertChildren converts all named children of n, splicing through grammar
// nodes that have no generic counterpart so that irrelevant syntax never
// widens the tree the engine has to match against.
func (c *converter) convertChildren(n *sitter.Node) []*tree.Node {
	var out []*tree.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, c.convert(n.NamedChild(i))...)
	}
	return out
}

// convert maps one grammar node onto zero or more generic nodes. The switch
// is the single place concrete grammar names appear; unhandled kinds fall
// through to transparent recursion rather than silently vanishing with
// their subtrees.
func (c *converter) convert(n *sitter.Node) []*tree.Node {
	switch n.Type() {
	case "type_declaration":
		return c.convertChildren(n)

	case "type_spec":
		return c.convertTypeSpec(n)

	case "function_declaration":
		return []*tree.Node{c.convertFunc(n, tree.KindFunction)}

	case "method_declaration":
		return []*tree.Node{c.convertFunc(n, tree.KindMethod)}

	case "field_declaration_list":
		fl := &tree.Node{Kind: tree.KindFieldList, Pos: c.pos(n)}
		fl.Children = c.convertChildren(n)
		return []*tree.Node{fl}

	case "field_declaration":
		return c.convertField(n)

	case "parameter_declaration", "variadic_parameter_declaration":
		return c.convertParam(n)

	case "block":
		b := &tree.Node{Kind: tree.KindBlock, Pos: c.pos(n)}
		b.Children = c.convertChildren(n)
		return []*tree.Node{b}

	case "if_statement":
		out := &tree.Node{Kind: tree.KindIf, Pos: c.pos(n)}
		out.Children = c.convertChildren(n)
		return []*tree.Node{out}

	case "expression_switch_statement", "type_switch_statement", "select_statement":
		out := &tree.Node{Kind: tree.KindSwitch, Pos: c.pos(n)}
		out.Children = c.convertChildren(n)
		return []*tree.Node{out}

	case "call_expression":
		out := &tree.Node{Kind: tree.KindCall, Pos: c.pos(n)}
		if fn := n.ChildByFieldName("function"); fn != nil {
			out.Name = fn.Content(c.src)
		}
		out.Children = c.convertChildren(n)
		return []*tree.Node{out}

	case "return_statement":
		out := &tree.Node{Kind: tree.KindReturn, Pos: c.pos(n)}
		out.Children = c.convertChildren(n)
		return []*tree.Node{out}

	case "assignment_statement", "short_var_declaration":
		out := &tree.Node{Kind: tree.KindAssign, Pos: c.pos(n)}
		if left := n.ChildByFieldName("left"); left != nil {
			out.Name = left.Content(c.src)
		}
		out.Children = c.convertChildren(n)
		return []*tree.Node{out}

	case "var_spec":
		return c.convertValueSpec(n, tree.KindVar)

	case "const_spec":
		return c.convertValueSpec(n, tree.KindConst)

	case "comment":
		return nil

	default:
		// Transparent: no generic counterpart, keep looking below.
		return c.convertChildren(n)
	}
}

func (c *converter) convertTypeSpec(n *sitter.Node) []*tree.Node {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(c.src)

	kind := tree.KindTypeDecl
	typeText := ""
	var children []*tree.Node
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		switch typeNode.Type() {
		case "interface_type":
			kind = tree.KindInterface
			children = c.convertInterface(typeNode)
		case "struct_type":
			children = c.convertChildren(typeNode)
		default:
			typeText = typeNode.Content(c.src)
		}
	}

	return []*tree.Node{{
		Kind:       kind,
		Name:       name,
		TypeText:   typeText,
		Visibility: visibilityOf(name),
		Pos:        c.pos(n),
		Children:   children,
	}}
}

// convertInterface flattens method specs into Method children so interface
// shapes can be matched without grammar-specific knowledge.
func (c *converter) convertInterface(n *sitter.Node) []*tree.Node {
	var methods []*tree.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() != "method_elem" && el.Type() != "method_spec" {
			continue
		}
		m := &tree.Node{Kind: tree.KindMethod, Pos: c.pos(el)}
		if nameNode := el.ChildByFieldName("name"); nameNode != nil {
			m.Name = nameNode.Content(c.src)
			m.Visibility = visibilityOf(m.Name)
		}
		if params := el.ChildByFieldName("parameters"); params != nil {
			m.Children = append(m.Children, c.convertChildren(params)...)
		}
		if result := el.ChildByFieldName("result"); result != nil {
			m.TypeText = result.Content(c.src)
		}
		methods = append(methods, m)
	}
	return methods
}

func (c *converter) convertFunc(n *sitter.Node, kind tree.Kind) *tree.Node {
	out := &tree.Node{Kind: kind, Pos: c.pos(n)}
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		out.Name = nameNode.Content(c.src)
		out.Visibility = visibilityOf(out.Name)
	}
	if recv := n.ChildByFieldName("receiver"); recv != nil {
		out.Children = append(out.Children, c.convertChildren(recv)...)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		out.Children = append(out.Children, c.convertChildren(params)...)
	}
	if result := n.ChildByFieldName("result"); result != nil {
		out.TypeText = result.Content(c.src)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		out.Children = append(out.Children, c.convert(body)...)
	}
	return out
}

func (c *converter) convertField(n *sitter.Node) []*tree.Node {
	typeText := ""
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		typeText = typeNode.Content(c.src)
	}

	var fields []*tree.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "field_identifier" {
			continue
		}
		name := child.Content(c.src)
		fields = append(fields, &tree.Node{
			Kind:       tree.KindField,
			Name:       name,
			TypeText:   typeText,
			Visibility: visibilityOf(name),
			Pos:        c.pos(n),
		})
	}

	// Embedded field: no identifiers, name derived from the type.
	if len(fields) == 0 && typeText != "" {
		name := strings.TrimPrefix(typeText, "*")
		if lastDot := strings.LastIndex(name, "."); lastDot != -1 {
			name = name[lastDot+1:]
		}
		fields = append(fields, &tree.Node{
			Kind:       tree.KindField,
			Name:       name,
			TypeText:   typeText,
			Visibility: visibilityOf(name),
			Pos:        c.pos(n),
		})
	}
	return fields
}

func (c *converter) convertParam(n *sitter.Node) []*tree.Node {
	typeText := ""
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		typeText = typeNode.Content(c.src)
	}

	var params []*tree.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "identifier" {
			continue
		}
		params = append(params, &tree.Node{
			Kind:     tree.KindParam,
			Name:     child.Content(c.src),
			TypeText: typeText,
			Pos:      c.pos(n),
		})
	}
	if len(params) == 0 {
		params = append(params, &tree.Node{Kind: tree.KindParam, TypeText: typeText, Pos: c.pos(n)})
	}
	return params
}

func (c *converter) convertValueSpec(n *sitter.Node, kind tree.Kind) []*tree.Node {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(c.src)

	out := &tree.Node{
		Kind:       kind,
		Name:       name,
		Visibility: visibilityOf(name),
		Pos:        c.pos(n),
	}
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		out.TypeText = typeNode.Content(c.src)
	} else if valueNode := n.ChildByFieldName("value"); valueNode != nil {
		out.TypeText = valueNode.Content(c.src)
	}
	return []*tree.Node{out}
}

func visibilityOf(name string) string {
	if name == "" {
		return ""
	}
	for _, r := range name {
		if unicode.IsUpper(r) {
			return "public"
		}
		return "private"
	}
	return ""
}
