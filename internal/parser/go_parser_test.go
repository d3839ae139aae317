package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patlens/internal/tree"
)

func parseSample(t *testing.T) *tree.Node {
	t.Helper()
	root, err := NewGoParser().ParseFile("testdata/sample.go")
	require.NoError(t, err)
	require.NotNil(t, root)
	return root
}

func findNode(root *tree.Node, kind tree.Kind, name string) *tree.Node {
	var found *tree.Node
	tree.Walk(root, func(n *tree.Node) bool {
		if n.Kind == kind && n.Name == name {
			found = n
			return false
		}
		return found == nil
	})
	return found
}

func TestParseFile_Root(t *testing.T) {
	root := parseSample(t)
	assert.Equal(t, tree.KindFile, root.Kind)
	assert.Equal(t, "sample", root.Name)
	assert.Equal(t, "testdata/sample.go", root.Pos.Filepath)
}

func TestParseFile_StructType(t *testing.T) {
	typ := findNode(parseSample(t), tree.KindTypeDecl, "ConfigSingleton")
	require.NotNil(t, typ)
	assert.Equal(t, "public", typ.Visibility)
	assert.Positive(t, typ.Pos.StartLine)

	require.Len(t, typ.Children, 1)
	fields := typ.Children[0]
	assert.Equal(t, tree.KindFieldList, fields.Kind)
	require.Len(t, fields.Children, 2)

	instance := fields.Children[0]
	assert.Equal(t, tree.KindField, instance.Kind)
	assert.Equal(t, "instance", instance.Name)
	assert.Equal(t, "*ConfigSingleton", instance.TypeText)
	assert.Equal(t, "private", instance.Visibility)

	name := fields.Children[1]
	assert.Equal(t, "Name", name.Name)
	assert.Equal(t, "string", name.TypeText)
	assert.Equal(t, "public", name.Visibility)
}

func TestParseFile_Interface(t *testing.T) {
	iface := findNode(parseSample(t), tree.KindInterface, "EventListener")
	require.NotNil(t, iface)
	assert.Equal(t, "public", iface.Visibility)

	require.Len(t, iface.Children, 1)
	method := iface.Children[0]
	assert.Equal(t, tree.KindMethod, method.Kind)
	assert.Equal(t, "OnEvent", method.Name)
	assert.Equal(t, "error", method.TypeText)

	require.NotEmpty(t, method.Children)
	param := method.Children[0]
	assert.Equal(t, tree.KindParam, param.Kind)
	assert.Equal(t, "payload", param.Name)
	assert.Equal(t, "string", param.TypeText)
}

func TestParseFile_Function(t *testing.T) {
	fn := findNode(parseSample(t), tree.KindFunction, "NewConfig")
	require.NotNil(t, fn)
	assert.Equal(t, "*ConfigSingleton", fn.TypeText)
	assert.Equal(t, "public", fn.Visibility)

	require.NotEmpty(t, fn.Children)
	body := fn.Children[len(fn.Children)-1]
	require.Equal(t, tree.KindBlock, body.Kind)
	require.NotEmpty(t, body.Children)
	assert.Equal(t, tree.KindReturn, body.Children[0].Kind)
}

func TestParseFile_Method(t *testing.T) {
	m := findNode(parseSample(t), tree.KindMethod, "Describe")
	require.NotNil(t, m)
	assert.Equal(t, "string", m.TypeText)

	receiver := findNode(m, tree.KindParam, "c")
	require.NotNil(t, receiver)
	assert.Equal(t, "*ConfigSingleton", receiver.TypeText)

	verbose := findNode(m, tree.KindParam, "verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "bool", verbose.TypeText)

	t.Run("conditional inside the body", func(t *testing.T) {
		body := m.Children[len(m.Children)-1]
		require.Equal(t, tree.KindBlock, body.Kind)

		var hasIf bool
		for _, c := range body.Children {
			if c.Kind == tree.KindIf {
				hasIf = true
			}
		}
		assert.True(t, hasIf, "the if statement sits directly under the method body")
	})
}

func TestParseFile_ValueSpecs(t *testing.T) {
	root := parseSample(t)

	v := findNode(root, tree.KindVar, "defaultName")
	require.NotNil(t, v)
	assert.Equal(t, "private", v.Visibility)

	c := findNode(root, tree.KindConst, "MaxRetries")
	require.NotNil(t, c)
	assert.Equal(t, "public", c.Visibility)
}

func TestParseFile_CommentsDropped(t *testing.T) {
	src := []byte("package x\n\n// helper does nothing.\nfunc helper() {}\n")
	root, err := NewGoParser().Parse(src, "x.go")
	require.NoError(t, err)

	var comments int
	tree.Walk(root, func(n *tree.Node) bool {
		if n.Kind == tree.KindComment {
			comments++
		}
		return true
	})
	assert.Zero(t, comments)
	assert.NotNil(t, findNode(root, tree.KindFunction, "helper"))
}

func TestParseFile_Missing(t *testing.T) {
	_, err := NewGoParser().ParseFile("testdata/does-not-exist.go")
	assert.Error(t, err)
}
