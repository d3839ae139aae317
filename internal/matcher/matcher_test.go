package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"patlens/internal/pattern"
	"patlens/internal/tree"
)

func TestMatches_LeafSignature(t *testing.T) {
	m := New()
	sig := pattern.Signature{Kind: tree.KindTypeDecl}

	t.Run("kind decides alone", func(t *testing.T) {
		assert.True(t, m.Matches(&tree.Node{Kind: tree.KindTypeDecl}, sig))
		assert.True(t, m.Matches(&tree.Node{Kind: tree.KindTypeDecl, Name: "Anything"}, sig))
		assert.False(t, m.Matches(&tree.Node{Kind: tree.KindFunction}, sig))
	})

	t.Run("absent node", func(t *testing.T) {
		assert.False(t, m.Matches(nil, sig))

		optional := sig
		optional.Optional = true
		assert.True(t, m.Matches(nil, optional), "optional signature is vacuously satisfied by absence")
	})
}

func TestMatches_NamePattern(t *testing.T) {
	m := New()
	sig := pattern.Signature{
		Kind:        tree.KindFunction,
		NamePattern: pattern.MustNamePattern(`^New`),
	}

	assert.True(t, m.Matches(&tree.Node{Kind: tree.KindFunction, Name: "NewClient"}, sig))
	assert.False(t, m.Matches(&tree.Node{Kind: tree.KindFunction, Name: "Close"}, sig))

	t.Run("search not full match", func(t *testing.T) {
		contains := pattern.Signature{
			Kind:        tree.KindTypeDecl,
			NamePattern: pattern.MustNamePattern(`Singleton`),
		}
		assert.True(t, m.Matches(&tree.Node{Kind: tree.KindTypeDecl, Name: "ConfigSingletonImpl"}, contains))
	})

	t.Run("nameless node fails closed", func(t *testing.T) {
		assert.False(t, m.Matches(&tree.Node{Kind: tree.KindFunction}, sig))
	})
}

func TestMatches_Properties(t *testing.T) {
	m := New()

	t.Run("visibility", func(t *testing.T) {
		sig := pattern.Signature{
			Kind:       tree.KindTypeDecl,
			Properties: map[string]string{"visibility": "public"},
		}
		assert.True(t, m.Matches(&tree.Node{Kind: tree.KindTypeDecl, Name: "Config", Visibility: "public"}, sig))
		assert.False(t, m.Matches(&tree.Node{Kind: tree.KindTypeDecl, Name: "config", Visibility: "private"}, sig))
		assert.False(t, m.Matches(&tree.Node{Kind: tree.KindTypeDecl}, sig), "inapplicable property fails closed")
	})

	t.Run("child_count", func(t *testing.T) {
		sig := pattern.Signature{
			Kind:       tree.KindBlock,
			Properties: map[string]string{"child_count": "2"},
		}
		node := &tree.Node{Kind: tree.KindBlock}
		node.AddChild(&tree.Node{Kind: tree.KindReturn})
		assert.False(t, m.Matches(node, sig))
		node.AddChild(&tree.Node{Kind: tree.KindReturn})
		assert.True(t, m.Matches(node, sig))
	})

	t.Run("unknown property fails closed", func(t *testing.T) {
		sig := pattern.Signature{
			Kind:       tree.KindTypeDecl,
			Properties: map[string]string{"nonexistent": "true"},
		}
		assert.False(t, m.Matches(&tree.Node{Kind: tree.KindTypeDecl}, sig))
	})

	t.Run("registered extractor extends the vocabulary", func(t *testing.T) {
		custom := New(WithExtractor("has_name", func(n *tree.Node) (string, bool) {
			if n.Name == "" {
				return "false", true
			}
			return "true", true
		}))
		sig := pattern.Signature{
			Kind:       tree.KindTypeDecl,
			Properties: map[string]string{"has_name": "true"},
		}
		assert.True(t, custom.Matches(&tree.Node{Kind: tree.KindTypeDecl, Name: "X"}, sig))
		assert.False(t, custom.Matches(&tree.Node{Kind: tree.KindTypeDecl}, sig))
	})
}

func TestMatches_Children(t *testing.T) {
	m := New()

	funcWithIf := func() *tree.Node {
		fn := &tree.Node{Kind: tree.KindFunction, Name: "Dispatch"}
		block := &tree.Node{Kind: tree.KindBlock}
		block.AddChild(&tree.Node{Kind: tree.KindIf})
		fn.AddChild(block)
		return fn
	}

	t.Run("direct child", func(t *testing.T) {
		sig := pattern.Signature{
			Kind:     tree.KindFunction,
			Children: []pattern.Signature{{Kind: tree.KindBlock}},
		}
		assert.True(t, m.Matches(funcWithIf(), sig))
	})

	t.Run("transparent descent one level", func(t *testing.T) {
		sig := pattern.Signature{
			Kind:     tree.KindFunction,
			Children: []pattern.Signature{{Kind: tree.KindIf}},
		}
		// The If sits inside a Block, which is transparent.
		assert.True(t, m.Matches(funcWithIf(), sig))
	})

	t.Run("descent stops at one level", func(t *testing.T) {
		fn := &tree.Node{Kind: tree.KindFunction, Name: "Deep"}
		outer := &tree.Node{Kind: tree.KindBlock}
		inner := &tree.Node{Kind: tree.KindBlock}
		inner.AddChild(&tree.Node{Kind: tree.KindIf})
		outer.AddChild(inner)
		fn.AddChild(outer)

		sig := pattern.Signature{
			Kind:     tree.KindFunction,
			Children: []pattern.Signature{{Kind: tree.KindIf}},
		}
		assert.False(t, m.Matches(fn, sig), "grandgrandchildren are out of reach")
	})

	t.Run("no descent through opaque kinds", func(t *testing.T) {
		fn := &tree.Node{Kind: tree.KindFunction, Name: "Wrapped"}
		call := &tree.Node{Kind: tree.KindCall, Name: "wrap"}
		call.AddChild(&tree.Node{Kind: tree.KindIf})
		fn.AddChild(call)

		sig := pattern.Signature{
			Kind:     tree.KindFunction,
			Children: []pattern.Signature{{Kind: tree.KindIf}},
		}
		assert.False(t, m.Matches(fn, sig))
	})

	t.Run("all required children must hold", func(t *testing.T) {
		sig := pattern.Signature{
			Kind: tree.KindFunction,
			Children: []pattern.Signature{
				{Kind: tree.KindBlock},
				{Kind: tree.KindParam},
			},
		}
		assert.False(t, m.Matches(funcWithIf(), sig))

		withParam := funcWithIf()
		withParam.Children = append([]*tree.Node{{Kind: tree.KindParam, Name: "x"}}, withParam.Children...)
		assert.True(t, m.Matches(withParam, sig))
	})

	t.Run("optional child invariance", func(t *testing.T) {
		sig := pattern.Signature{
			Kind: tree.KindFunction,
			Children: []pattern.Signature{
				{Kind: tree.KindBlock},
				{Kind: tree.KindParam, Optional: true},
			},
		}
		without := funcWithIf()
		assert.True(t, m.Matches(without, sig))

		with := funcWithIf()
		with.AddChild(&tree.Node{Kind: tree.KindParam, Name: "x"})
		assert.True(t, m.Matches(with, sig), "presence of the optional child must not flip the result")
	})
}

func TestMatches_ConfiguredTransparentKinds(t *testing.T) {
	m := New(WithTransparentKinds(tree.KindFieldList))

	fn := &tree.Node{Kind: tree.KindFunction, Name: "Dispatch"}
	block := &tree.Node{Kind: tree.KindBlock}
	block.AddChild(&tree.Node{Kind: tree.KindIf})
	fn.AddChild(block)

	sig := pattern.Signature{
		Kind:     tree.KindFunction,
		Children: []pattern.Signature{{Kind: tree.KindIf}},
	}
	assert.False(t, m.Matches(fn, sig), "Block is no longer transparent in this matcher")
}

func TestMatchedCount(t *testing.T) {
	m := New()
	node := &tree.Node{Kind: tree.KindTypeDecl, Name: "Widget"}
	sigs := []pattern.Signature{
		{Kind: tree.KindTypeDecl},
		{Kind: tree.KindFunction},
		{Kind: tree.KindTypeDecl, NamePattern: pattern.MustNamePattern(`Widget`)},
	}
	assert.Equal(t, 2, m.MatchedCount(node, sigs))
}
