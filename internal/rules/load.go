package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	apperr "filesorter/internal/errors"

	"gopkg.in/yaml.v3"
)

// DefaultYAML is the sample rule set written by "rules init".
//
//go:embed default_rules.yaml
var DefaultYAML []byte

// ruleSpec is the on-disk shape of one category.
type ruleSpec struct {
	Extensions []string `yaml:"extensions"`
	MIME       []string `yaml:"mime"`
	Target     string   `yaml:"target"`
}

var knownKeys = map[string]bool{"extensions": true, "mime": true, "target": true}

// Load reads and normalizes the rules file at path. A missing file is a
// configuration error; content that is not a valid rule mapping is a parse
// error.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NewConfigError("sorting rules file not found", path, apperr.ConfigNotFound, err)
		}
		return nil, apperr.NewConfigError("failed to read sorting rules file", path, apperr.InvalidConfig, err)
	}

	rs, err := Parse(data)
	if err != nil {
		var parseErr *apperr.ParseError
		if apperr.As(err, &parseErr) {
			return nil, parseErr.WithPath(path)
		}
		return nil, err
	}
	return rs, nil
}

// Parse builds a RuleSet from YAML, keeping the document's category order.
func Parse(data []byte) (*RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperr.NewParseError("invalid YAML", "", 0, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, apperr.NewParseError("empty rules document", "", 0, nil)
	}

	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, apperr.NewParseError("rules document must be a mapping of categories", "", root.Line, nil)
	}

	rs := &RuleSet{index: make(map[string]int, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], resolve(root.Content[i+1])
		if keyNode.Kind != yaml.ScalarNode {
			return nil, apperr.NewParseError("category key must be a string", "", keyNode.Line, nil)
		}

		spec, err := decodeSpec(keyNode.Value, valNode)
		if err != nil {
			return nil, err
		}

		rule, err := normalize(Rule{
			Category:   keyNode.Value,
			Extensions: spec.Extensions,
			MIME:       spec.MIME,
			Target:     spec.Target,
		})
		if err != nil {
			return nil, apperr.NewParseError("invalid rule", "", valNode.Line, err)
		}
		if err := rs.add(rule); err != nil {
			return nil, apperr.NewParseError("invalid rule", "", keyNode.Line, err)
		}
	}
	return rs, nil
}

func decodeSpec(category string, node *yaml.Node) (ruleSpec, error) {
	var spec ruleSpec
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return spec, nil
	}
	if node.Kind != yaml.MappingNode {
		return spec, apperr.NewParseError(fmt.Sprintf("category %q: rule body must be a mapping", category), "", node.Line, nil)
	}

	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if !knownKeys[key.Value] {
			return spec, apperr.NewParseError(
				fmt.Sprintf("category %q: unknown key %q (expected %s)", category, key.Value, expectedKeys()),
				"", key.Line, nil)
		}
	}

	if err := node.Decode(&spec); err != nil {
		return spec, apperr.NewParseError(fmt.Sprintf("category %q: malformed rule", category), "", node.Line, err)
	}
	return spec, nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func expectedKeys() string {
	return strings.Join([]string{"extensions", "mime", "target"}, ", ")
}
