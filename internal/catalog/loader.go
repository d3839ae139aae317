package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"patlens/internal/pattern"
	"patlens/internal/tree"
)

// definitionsSchema validates caller-supplied catalogs before they reach the
// registry, so a malformed file fails loudly at startup instead of producing
// definitions that silently never match.
const definitionsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["patterns"],
	"properties": {
		"patterns": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "min_confidence"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"min_confidence": {"type": "number", "minimum": 0, "maximum": 1},
					"signatures": {"type": "array", "items": {"$ref": "#/definitions/signature"}},
					"heuristics": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name", "weight", "check"],
							"properties": {
								"name": {"type": "string", "minLength": 1},
								"description": {"type": "string"},
								"weight": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
								"check": {
									"type": "object",
									"required": ["type"],
									"properties": {
										"type": {"type": "string"},
										"value": {"type": "string"}
									}
								}
							}
						}
					}
				}
			}
		}
	},
	"definitions": {
		"signature": {
			"type": "object",
			"required": ["kind"],
			"properties": {
				"kind": {"type": "string", "minLength": 1},
				"name_pattern": {"type": "string"},
				"properties": {"type": "object", "additionalProperties": {"type": "string"}},
				"optional": {"type": "boolean"},
				"children": {"type": "array", "items": {"$ref": "#/definitions/signature"}}
			}
		}
	}
}`

type catalogSpec struct {
	Patterns []definitionSpec `yaml:"patterns"`
}

type definitionSpec struct {
	Name          string          `yaml:"name"`
	Description   string          `yaml:"description"`
	MinConfidence float64         `yaml:"min_confidence"`
	Signatures    []signatureSpec `yaml:"signatures"`
	Heuristics    []heuristicSpec `yaml:"heuristics"`
}

type signatureSpec struct {
	Kind        string            `yaml:"kind"`
	NamePattern string            `yaml:"name_pattern"`
	Properties  map[string]string `yaml:"properties"`
	Optional    bool              `yaml:"optional"`
	Children    []signatureSpec   `yaml:"children"`
}

type heuristicSpec struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Weight      float64   `yaml:"weight"`
	Check       checkSpec `yaml:"check"`
}

type checkSpec struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// LoadFile reads a YAML pattern catalog, validates it against the catalog
// schema and compiles it into pattern definitions.
func LoadFile(path string) ([]*pattern.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	defs, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return defs, nil
}

// Load parses and validates YAML catalog bytes.
func Load(data []byte) ([]*pattern.Definition, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var spec catalogSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	defs := make([]*pattern.Definition, 0, len(spec.Patterns))
	for _, ds := range spec.Patterns {
		def, err := buildDefinition(ds)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func validate(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("not valid YAML: %w", err)
	}

	// The schema validator expects JSON-shaped values, so round-trip the
	// decoded document through encoding/json first.
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var jsonDoc interface{}
	if err := json.Unmarshal(jsonBytes, &jsonDoc); err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("catalog.json", strings.NewReader(definitionsSchema)); err != nil {
		return err
	}
	schema, err := compiler.Compile("catalog.json")
	if err != nil {
		return err
	}
	if err := schema.Validate(jsonDoc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func buildDefinition(ds definitionSpec) (*pattern.Definition, error) {
	def := &pattern.Definition{
		Name:          ds.Name,
		Description:   ds.Description,
		MinConfidence: ds.MinConfidence,
	}

	for _, ss := range ds.Signatures {
		sig, err := buildSignature(ss)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", ds.Name, err)
		}
		def.Signatures = append(def.Signatures, sig)
	}

	for _, hs := range ds.Heuristics {
		check, err := compileCheck(hs.Check)
		if err != nil {
			return nil, fmt.Errorf("pattern %q, heuristic %q: %w", ds.Name, hs.Name, err)
		}
		def.Heuristics = append(def.Heuristics, pattern.Heuristic{
			Name:        hs.Name,
			Description: hs.Description,
			Weight:      hs.Weight,
			Check:       check,
		})
	}

	return def, nil
}

func buildSignature(ss signatureSpec) (pattern.Signature, error) {
	sig := pattern.Signature{
		Kind:       tree.Kind(ss.Kind),
		Properties: ss.Properties,
		Optional:   ss.Optional,
	}
	if ss.NamePattern != "" {
		re, err := regexp.Compile(ss.NamePattern)
		if err != nil {
			return sig, fmt.Errorf("bad name pattern %q: %w", ss.NamePattern, err)
		}
		sig.NamePattern = re
	}
	for _, child := range ss.Children {
		cs, err := buildSignature(child)
		if err != nil {
			return sig, err
		}
		sig.Children = append(sig.Children, cs)
	}
	return sig, nil
}

// compileCheck turns a declarative check spec into a heuristic predicate.
// The vocabulary is deliberately small; richer checks belong in Go code.
func compileCheck(cs checkSpec) (func(*tree.Node) bool, error) {
	switch cs.Type {
	case "name_contains":
		return nameContains(cs.Value), nil
	case "name_matches":
		re, err := regexp.Compile(cs.Value)
		if err != nil {
			return nil, fmt.Errorf("bad name_matches pattern %q: %w", cs.Value, err)
		}
		return func(n *tree.Node) bool { return re.MatchString(n.Name) }, nil
	case "has_field_named":
		return hasFieldNamed(cs.Value), nil
	case "has_method_prefix":
		return hasMethodPrefix(cs.Value), nil
	case "has_child_kind":
		return hasChildKind(tree.Kind(cs.Value)), nil
	case "child_count_at_least":
		min, err := strconv.Atoi(cs.Value)
		if err != nil {
			return nil, fmt.Errorf("bad child_count_at_least value %q: %w", cs.Value, err)
		}
		return childCountAtLeast(min), nil
	default:
		return nil, fmt.Errorf("unknown check type %q", cs.Type)
	}
}
