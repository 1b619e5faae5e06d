// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

// text is a scalar exactly as written in the source document. Numbers are
// never reinterpreted: 0123 stays "0123".
type text struct {
	value string
	// str is false for numbers, booleans and other non-string scalars.
	str bool
}

// decode reads a JSON or YAML extraction document into an ordered tree of
// yaml.MapSlice, []interface{}, text and nil. A key repeated inside one
// mapping keeps its first position and takes its last value, like JSON.parse.
func decode(content []byte) (yaml.MapSlice, error) {
	file, err := parser.ParseBytes(content, 0, parser.AllowDuplicateMapKey())
	if err != nil {
		return nil, fmt.Errorf("failed to parse extraction: %w", err)
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return yaml.MapSlice{}, nil
	}

	d := &decoder{anchors: make(map[string]interface{})}
	switch doc := d.value(file.Docs[0].Body).(type) {
	case nil:
		return yaml.MapSlice{}, nil
	case yaml.MapSlice:
		return doc, nil
	}
	return nil, fmt.Errorf("failed to parse extraction: document must be an object of sections")
}

type decoder struct {
	anchors map[string]interface{}
}

func (d *decoder) value(n ast.Node) interface{} {
	switch n := n.(type) {
	case nil:
		return nil
	case *ast.NullNode:
		return nil
	case *ast.StringNode:
		return text{value: n.Value, str: true}
	case *ast.LiteralNode:
		return text{value: n.Value.Value, str: true}
	case *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode, *ast.InfinityNode, *ast.NanNode:
		return text{value: n.GetToken().Value}
	case *ast.MappingNode:
		return d.mapping(n.Values)
	case *ast.MappingValueNode:
		return d.mapping([]*ast.MappingValueNode{n})
	case *ast.SequenceNode:
		seq := make([]interface{}, 0, len(n.Values))
		for _, v := range n.Values {
			seq = append(seq, d.value(v))
		}
		return seq
	case *ast.TagNode:
		return d.value(n.Value)
	case *ast.AnchorNode:
		v := d.value(n.Value)
		if n.Name != nil {
			d.anchors[n.Name.GetToken().Value] = v
		}
		return v
	case *ast.AliasNode:
		if n.Value != nil {
			return d.anchors[n.Value.GetToken().Value]
		}
		return nil
	}
	return nil
}

func (d *decoder) mapping(values []*ast.MappingValueNode) yaml.MapSlice {
	m := make(yaml.MapSlice, 0, len(values))
	pos := make(map[string]int, len(values))
	for _, mv := range values {
		key := d.key(mv.Key)
		value := d.value(mv.Value)
		if i, ok := pos[key.value]; ok {
			m[i].Value = value
			continue
		}
		pos[key.value] = len(m)
		m = append(m, yaml.MapItem{Key: key, Value: value})
	}
	return m
}

func (d *decoder) key(k ast.MapKeyNode) text {
	if mk, ok := k.(*ast.MappingKeyNode); ok {
		if t, ok := d.value(mk.Value).(text); ok {
			return t
		}
		return text{}
	}
	if t, ok := d.value(k).(text); ok {
		return t
	}
	if tk := k.GetToken(); tk != nil {
		return text{value: tk.Value}
	}
	return text{}
}

// layout is the structural shape of a decoded document.
type layout int

const (
	layoutUnknown layout = iota
	layoutArray
	layoutMap
	// layoutEmpty means no section holds anything: no sections at all, or
	// only null sections.
	layoutEmpty
)

// detect reports the layout given by the first section holding a list or an
// object. Decode failures are returned, not folded into "unknown".
func detect(content []byte) (layout, error) {
	doc, err := decode(content)
	if err != nil {
		return layoutUnknown, err
	}
	empty := true
	for _, item := range doc {
		switch item.Value.(type) {
		case []interface{}:
			return layoutArray, nil
		case yaml.MapSlice:
			return layoutMap, nil
		case nil:
		default:
			empty = false
		}
	}
	if empty {
		return layoutEmpty, nil
	}
	return layoutUnknown, nil
}

// lookup returns the value stored under key in an ordered map.
func lookup(m yaml.MapSlice, key string) (interface{}, bool) {
	for _, item := range m {
		if k, ok := item.Key.(text); ok && k.value == key {
			return item.Value, true
		}
	}
	return nil, false
}

// scalar returns a scalar's source text; ok is false for mappings and
// sequences.
func scalar(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case text:
		return t.value, true
	}
	return "", false
}

// fieldName returns the field name and whether it is well formed. Anything
// other than a non-blank string is malformed.
func fieldName(v interface{}) (string, bool) {
	t, ok := v.(text)
	if !ok {
		return "", false
	}
	return t.value, t.str && strings.TrimSpace(t.value) != ""
}

func confidence(m yaml.MapSlice) float64 {
	v, ok := lookup(m, "confidence")
	if !ok {
		return 0
	}
	s, ok := scalar(v)
	if !ok || s == "" {
		return 0
	}
	c, _ := entity.ParseConfidence(s)
	return c
}

func sectionName(key interface{}) string {
	s, _ := scalar(key)
	return s
}
