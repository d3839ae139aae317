// Package catalog ships the built-in pattern definitions and templates, and
// loads caller-supplied declarative definitions from YAML.
package catalog

import (
	"patlens/internal/detect"
	"patlens/internal/pattern"
	"patlens/internal/transform"
	"patlens/internal/tree"
)

// Builtin returns the fixed pattern catalog. Definitions are freshly built
// on every call so callers own what they register.
func Builtin() []*pattern.Definition {
	return []*pattern.Definition{
		singleton(),
		factory(),
		observer(),
		strategy(),
		command(),
		builder(),
	}
}

// RegisterBuiltin registers the fixed catalog on a detector.
func RegisterBuiltin(d *detect.Detector) error {
	for _, def := range Builtin() {
		if err := d.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func singleton() *pattern.Definition {
	return &pattern.Definition{
		Name:        "Singleton",
		Description: "a type that guards a single shared instance of itself",
		Signatures: []pattern.Signature{
			{Kind: tree.KindTypeDecl},
		},
		Heuristics: []pattern.Heuristic{
			{
				Name:        "name-contains-singleton",
				Description: "type name mentions Singleton",
				Weight:      0.3,
				Check:       nameContains("singleton"),
			},
			{
				Name:        "has-instance-field",
				Description: "type declares a field named instance",
				Weight:      0.2,
				Check:       hasFieldNamed("instance"),
			},
		},
		MinConfidence: 0.7,
	}
}

func factory() *pattern.Definition {
	return &pattern.Definition{
		Name:        "Factory",
		Description: "a constructor function producing configured values",
		Signatures: []pattern.Signature{
			{Kind: tree.KindFunction, NamePattern: pattern.MustNamePattern(`^(New|Create|Make)`)},
		},
		Heuristics: []pattern.Heuristic{
			{
				Name:        "returns-named-type",
				Description: "function result is an exported type",
				Weight:      0.3,
				Check:       returnsNamedType(),
			},
			{
				Name:        "returns-value",
				Description: "function body returns a constructed value",
				Weight:      0.2,
				Check:       bodyContainsKind(tree.KindReturn),
			},
		},
		MinConfidence: 0.6,
	}
}

func observer() *pattern.Definition {
	return &pattern.Definition{
		Name:        "Observer",
		Description: "an interface notified of state changes in a subject",
		Signatures: []pattern.Signature{
			{
				Kind: tree.KindInterface,
				Children: []pattern.Signature{
					{Kind: tree.KindMethod, NamePattern: pattern.MustNamePattern(`^(Notify|Update|Handle|On[A-Z])`)},
				},
			},
		},
		Heuristics: []pattern.Heuristic{
			{
				Name:        "observer-name",
				Description: "interface name suggests an observer role",
				Weight:      0.3,
				Check: func(n *tree.Node) bool {
					return nameContains("observer")(n) || nameContains("listener")(n) || nameContains("subscriber")(n)
				},
			},
		},
		MinConfidence: 0.6,
	}
}

func strategy() *pattern.Definition {
	return &pattern.Definition{
		Name:        "Strategy",
		Description: "an interface encapsulating one interchangeable algorithm",
		Signatures: []pattern.Signature{
			{
				Kind: tree.KindInterface,
				Children: []pattern.Signature{
					{Kind: tree.KindMethod},
				},
			},
		},
		Heuristics: []pattern.Heuristic{
			{
				Name:        "strategy-name",
				Description: "interface name suggests an algorithm family",
				Weight:      0.4,
				Check: func(n *tree.Node) bool {
					return nameContains("strategy")(n) || nameContains("policy")(n) || nameContains("algorithm")(n)
				},
			},
			{
				Name:        "single-method",
				Description: "interface declares exactly one method",
				Weight:      0.2,
				Check: func(n *tree.Node) bool {
					return len(n.Children) == 1 && n.Children[0].Kind == tree.KindMethod
				},
			},
		},
		MinConfidence: 0.65,
	}
}

func command() *pattern.Definition {
	return &pattern.Definition{
		Name:        "Command",
		Description: "an interface reifying an invocable action",
		Signatures: []pattern.Signature{
			{
				Kind: tree.KindInterface,
				Children: []pattern.Signature{
					{Kind: tree.KindMethod, NamePattern: pattern.MustNamePattern(`^(Execute|Run|Do|Apply)$`)},
					{Kind: tree.KindMethod, NamePattern: pattern.MustNamePattern(`^(Undo|Revert)$`), Optional: true},
				},
			},
		},
		Heuristics: []pattern.Heuristic{
			{
				Name:        "command-name",
				Description: "interface name suggests a command role",
				Weight:      0.3,
				Check: func(n *tree.Node) bool {
					return nameContains("command")(n) || nameContains("action")(n) || nameContains("task")(n)
				},
			},
		},
		MinConfidence: 0.6,
	}
}

func builder() *pattern.Definition {
	return &pattern.Definition{
		Name:        "Builder",
		Description: "a type accumulating configuration toward a final product",
		Signatures: []pattern.Signature{
			{Kind: tree.KindTypeDecl, NamePattern: pattern.MustNamePattern(`Builder$`)},
		},
		Heuristics: []pattern.Heuristic{
			{
				Name:        "has-fields",
				Description: "builder accumulates state in fields",
				Weight:      0.2,
				Check:       childCountAtLeast(1),
			},
		},
		MinConfidence: 0.7,
	}
}

// RegisterTemplates installs the built-in rewrite templates on a transformer.
// Template names mirror the pattern names whose matches they rewrite.
func RegisterTemplates(t *transform.Transformer) {
	t.RegisterTemplate("Singleton", singletonTemplate())
	t.RegisterTemplate("Factory", factoryTemplate())
}

// singletonTemplate rebuilds a matched type as a canonical singleton: the
// type itself, a guarded package-level instance and an accessor.
func singletonTemplate() *tree.Node {
	fields := &tree.Node{Kind: tree.KindFieldList}
	fields.AddChild(&tree.Node{Kind: tree.KindField, Name: "instance", TypeText: "*" + transform.MarkerName, Visibility: "private"})

	typ := &tree.Node{Kind: tree.KindTypeDecl, Name: transform.MarkerName, Visibility: "public"}
	typ.AddChild(fields)

	guard := &tree.Node{Kind: tree.KindIf, Name: "instance == nil"}
	guardBody := &tree.Node{Kind: tree.KindBlock}
	guardBody.AddChild(&tree.Node{Kind: tree.KindAssign, Name: "instance", TypeText: "&" + transform.MarkerName + "{}"})
	guard.AddChild(guardBody)

	body := &tree.Node{Kind: tree.KindBlock}
	body.AddChild(guard)
	body.AddChild(&tree.Node{Kind: tree.KindReturn, Name: "instance"})

	accessor := &tree.Node{Kind: tree.KindFunction, Name: "GetInstance", TypeText: "*" + transform.MarkerName, Visibility: "public"}
	accessor.AddChild(body)

	root := &tree.Node{Kind: tree.KindFile}
	root.AddChild(&tree.Node{Kind: tree.KindComment, Name: transform.MarkerName + " guards a single shared instance."})
	root.AddChild(typ)
	root.AddChild(&tree.Node{Kind: tree.KindVar, Name: "instance", TypeText: "*" + transform.MarkerName, Visibility: "private"})
	root.AddChild(accessor)
	return root
}

// factoryTemplate rebuilds a matched constructor as a canonical factory
// function returning the discovered result type.
func factoryTemplate() *tree.Node {
	body := &tree.Node{Kind: tree.KindBlock}
	body.AddChild(&tree.Node{Kind: tree.KindReturn, Name: "&" + transform.MarkerBareType + "{}"})

	fn := &tree.Node{Kind: tree.KindFunction, Name: transform.MarkerName, TypeText: transform.MarkerType, Visibility: "public"}
	fn.AddChild(body)

	root := &tree.Node{Kind: tree.KindFile}
	root.AddChild(&tree.Node{Kind: tree.KindComment, Name: transform.MarkerName + " constructs a " + transform.MarkerBareType + "."})
	root.AddChild(fn)
	return root
}
