package locale

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is a dictionary tree node: either a Leaf or a Branch.
type Node interface {
	node()
}

// Leaf is a translated string.
type Leaf string

// Branch maps key segments to child nodes.
type Branch map[string]Node

func (Leaf) node()   {}
func (Branch) node() {}

// Dictionary is the full key tree for one language.
type Dictionary = Branch

// Lookup walks a dot-separated path. It reports false when a segment is
// missing, when the walk tries to descend into a leaf, or when the path ends
// on a branch.
func (b Branch) Lookup(key string) (string, bool) {
	var current Node = b
	for _, segment := range strings.Split(key, ".") {
		branch, ok := current.(Branch)
		if !ok {
			return "", false
		}
		next, ok := branch[segment]
		if !ok {
			return "", false
		}
		current = next
	}
	leaf, ok := current.(Leaf)
	if !ok {
		return "", false
	}
	return string(leaf), true
}

// Translate returns the string stored at key, or key itself when unresolved.
func (b Branch) Translate(key string) string {
	if value, ok := b.Lookup(key); ok {
		return value
	}
	return key
}

// Paths lists every dot-path that resolves to a leaf, sorted.
func (b Branch) Paths() []string {
	var paths []string
	var walk func(prefix string, branch Branch)
	walk = func(prefix string, branch Branch) {
		for key, child := range branch {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			switch typed := child.(type) {
			case Leaf:
				paths = append(paths, path)
			case Branch:
				walk(path, typed)
			}
		}
	}
	walk("", b)
	sort.Strings(paths)
	return paths
}

// ParseJSON builds a dictionary from a JSON object.
func ParseJSON(data []byte) (Dictionary, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode json dictionary: %w", err)
	}
	return fromTree(raw), nil
}

// ParseYAML builds a dictionary from a YAML mapping.
func ParseYAML(data []byte) (Dictionary, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml dictionary: %w", err)
	}
	return fromTree(raw), nil
}

// fromTree keeps strings and nested mappings. Other scalar and list values have
// no Node form, so lookups that reach them fall back to the key.
func fromTree(raw map[string]any) Branch {
	branch := make(Branch, len(raw))
	for key, value := range raw {
		if node, ok := toNode(value); ok {
			branch[key] = node
		}
	}
	return branch
}

func toNode(value any) (Node, bool) {
	switch typed := value.(type) {
	case string:
		return Leaf(typed), true
	case map[string]any:
		return fromTree(typed), true
	case map[any]any:
		converted := make(map[string]any, len(typed))
		for key, child := range typed {
			converted[fmt.Sprint(key)] = child
		}
		return fromTree(converted), true
	default:
		return nil, false
	}
}
