package parser

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// SourcePosition is a 1-based line and character column
type SourcePosition struct {
	Line   int
	Column int
}

// NodeLocation is where an instance path lands in the YAML source
type NodeLocation struct {
	// Node is the start of the value at the path, or of the deepest ancestor
	// that exists when the path does not.
	Node SourcePosition
	// Key is the start of the nearest mapping key enclosing Node.
	Key    SourcePosition
	HasKey bool
	// Exact is false when the location fell back to an ancestor.
	Exact bool
}

// NodeLocator parses YAML once and answers repeated path lookups against the
// cached AST.
type NodeLocator struct {
	root       ast.Node
	parseError error
}

// NewNodeLocator creates a locator for yamlText
func NewNodeLocator(yamlText string) *NodeLocator {
	locator := &NodeLocator{}

	file, err := parser.ParseBytes([]byte(yamlText), 0)
	switch {
	case err != nil:
		locator.parseError = fmt.Errorf("failed to parse YAML: %w", err)
	case file == nil || len(file.Docs) == 0:
		locator.parseError = fmt.Errorf("no YAML documents found")
	default:
		locator.root = file.Docs[0].Body
	}

	return locator
}

// Locate finds the node addressed by path, a list of mapping keys and
// sequence indices such as jsonschema instance locations.
func (l *NodeLocator) Locate(path []string) (NodeLocation, error) {
	if l.parseError != nil {
		return NodeLocation{}, l.parseError
	}
	if l.root == nil {
		return NodeLocation{}, fmt.Errorf("YAML document is empty")
	}

	current := l.root
	var key ast.Node
	exact := true

	for _, segment := range path {
		next, nextKey := childNode(current, segment)
		if next == nil {
			exact = false
			break
		}
		current = next
		if nextKey != nil {
			key = nextKey
		}
	}

	start := nodeStart(current)
	if start == nil {
		return NodeLocation{}, fmt.Errorf("node at %v has no position", path)
	}

	location := NodeLocation{
		Node:  tokenPosition(start),
		Exact: exact,
	}
	if key != nil {
		if keyStart := nodeStart(key); keyStart != nil {
			location.Key = tokenPosition(keyStart)
			location.HasKey = true
		}
	}
	return location, nil
}

// childNode returns the value under segment and, for mappings, its key node
func childNode(node ast.Node, segment string) (ast.Node, ast.Node) {
	switch n := node.(type) {
	case *ast.DocumentNode:
		return childNode(n.Body, segment)
	case *ast.AnchorNode:
		return childNode(n.Value, segment)
	case *ast.TagNode:
		return childNode(n.Value, segment)
	case *ast.MappingNode:
		for _, value := range n.Values {
			if keyMatches(value.Key, segment) {
				return value.Value, value.Key
			}
		}
	case *ast.MappingValueNode:
		if keyMatches(n.Key, segment) {
			return n.Value, n.Key
		}
	case *ast.SequenceNode:
		index, err := strconv.Atoi(segment)
		if err == nil && index >= 0 && index < len(n.Values) {
			return n.Values[index], nil
		}
	}
	return nil, nil
}

// keyMatches compares a mapping key with a path segment
func keyMatches(key ast.MapKeyNode, segment string) bool {
	if key == nil {
		return false
	}
	switch k := key.(type) {
	case *ast.StringNode:
		return k.Value == segment
	case *ast.MappingKeyNode:
		if k.Value != nil && k.Value.GetToken() != nil {
			return k.Value.GetToken().Value == segment
		}
		return false
	}
	if tok := key.GetToken(); tok != nil {
		return tok.Value == segment
	}
	return false
}

// nodeStart returns the first source token of node. Block mappings start at
// their first key rather than at the token goccy records for them.
func nodeStart(node ast.Node) *token.Token {
	switch n := node.(type) {
	case nil:
		return nil
	case *ast.DocumentNode:
		return nodeStart(n.Body)
	case *ast.MappingNode:
		if !n.IsFlowStyle && len(n.Values) > 0 {
			return nodeStart(n.Values[0])
		}
	case *ast.MappingValueNode:
		return nodeStart(n.Key)
	}
	return node.GetToken()
}

func tokenPosition(tok *token.Token) SourcePosition {
	return SourcePosition{Line: tok.Position.Line, Column: tok.Position.Column}
}
