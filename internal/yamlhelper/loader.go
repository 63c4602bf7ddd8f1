// Package yamlhelper loads Ansible YAML into line-annotated trees and
// normalizes task invocations into a single shape.
package yamlhelper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

var lineErrRe = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// ParseError is a structural problem in a document.
type ParseError struct {
	Line    int
	Problem string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Problem)
}

func newParseError(err error) *ParseError {
	msg := err.Error()
	if m := lineErrRe.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &ParseError{Line: line, Problem: m[2]}
	}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}
	return &ParseError{Problem: msg}
}

// Map is a YAML mapping that keeps key order and the line it started on.
type Map struct {
	Line int
	File string

	keys   []string
	values map[string]any
}

func NewMap(line int, file string) *Map {
	return &Map{Line: line, File: file, values: make(map[string]any)}
}

// Set adds or replaces key. Replacing keeps the original key position.
func (m *Map) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// GetString returns the scalar value of key formatted as text, or "" for missing and non-scalar values.
func (m *Map) GetString(key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	return ScalarString(v)
}

func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Without returns a shallow copy of m lacking the given keys.
func (m *Map) Without(keys ...string) *Map {
	out := NewMap(m.Line, m.File)
	skip := make(map[string]bool, len(keys))
	for _, k := range keys {
		skip[k] = true
	}
	for _, k := range m.keys {
		if !skip[k] {
			out.Set(k, m.values[k])
		}
	}
	return out
}

// ScalarString formats scalar values; mappings, sequences and nil yield "".
func ScalarString(v any) string {
	switch t := v.(type) {
	case nil, *Map, []any:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Parse decodes a single YAML document into *Map, []any and scalar values.
// An empty document yields nil. Failures are returned as *ParseError.
func Parse(content []byte, file string) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, newParseError(err)
	}

	var next yaml.Node
	switch err := dec.Decode(&next); {
	case err == nil:
		return nil, &ParseError{Line: next.Line, Problem: "expected a single document in the stream"}
	case !errors.Is(err, io.EOF):
		return nil, newParseError(err)
	}

	return convert(&doc, file), nil
}

func convert(n *yaml.Node, file string) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return convert(n.Content[0], file)
	case yaml.AliasNode:
		return convert(n.Alias, file)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			out = append(out, convert(c, file))
		}
		return out
	case yaml.MappingNode:
		m := NewMap(n.Line, file)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Tag == "!!merge" {
				mergeInto(m, convert(value, file))
				continue
			}
			m.Set(key.Value, convert(value, file))
		}
		return m
	case yaml.ScalarNode:
		return scalar(n)
	}
	return nil
}

func mergeInto(m *Map, src any) {
	switch t := src.(type) {
	case *Map:
		for _, k := range t.keys {
			if !m.Has(k) {
				m.Set(k, t.values[k])
			}
		}
	case []any:
		for _, item := range t {
			mergeInto(m, item)
		}
	}
}

func scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool", "!!int", "!!float":
		var v any
		if err := n.Decode(&v); err == nil {
			return v
		}
	}
	return n.Value
}

// ToNative converts a parsed tree into plain maps and slices.
func ToNative(v any) any {
	switch t := v.(type) {
	case *Map:
		out := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			out[k] = ToNative(t.values[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToNative(item)
		}
		return out
	}
	return v
}
