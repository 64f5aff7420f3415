package formdata

import (
	"net/url"
	"slices"
	"strings"
)

// Tree is the nested form of a flat set of form values. Values are
// string, map[string]any or []any.
type Tree map[string]any

// Has reports whether any form key starts with name.
func (t Tree) Has(name string) bool {
	_, ok := t[name]
	return ok
}

// String returns the trimmed scalar value at name, or "" if it is absent
// or a container.
func (t Tree) String(name string) string {
	s, _ := t[name].(string)
	return strings.TrimSpace(s)
}

type node struct {
	value    string
	children map[string]*node
	index    map[string]int
}

func (n *node) child(seg Segment) *node {
	if n.children == nil {
		n.children = make(map[string]*node)
		n.index = make(map[string]int)
	}
	c, ok := n.children[seg.Key]
	if !ok {
		c = &node{}
		n.children[seg.Key] = c
		if seg.IsIndex {
			n.index[seg.Key] = seg.Index
		}
	}
	return c
}

// Build parses every key in values and nests the values accordingly.
// When a key is repeated its last value wins. Keys are applied in sorted
// order so the result does not depend on map iteration. When a path holds
// both a scalar and nested keys, the nested keys win. Index segments
// become lists, compacted in numeric order.
func Build(values url.Values) Tree {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	root := &node{}
	for _, k := range keys {
		vs := values[k]
		if len(vs) == 0 {
			continue
		}
		n := root
		for _, seg := range ParseKey(k) {
			n = n.child(seg)
		}
		n.value = vs[len(vs)-1]
	}

	tree := make(Tree, len(root.children))
	for k, c := range root.children {
		tree[k] = c.export()
	}
	return tree
}

func (n *node) export() any {
	if len(n.children) == 0 {
		return n.value
	}
	if len(n.index) == len(n.children) {
		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, func(a, b string) int {
			if d := n.index[a] - n.index[b]; d != 0 {
				return d
			}
			return strings.Compare(a, b)
		})
		list := make([]any, 0, len(keys))
		for _, k := range keys {
			list = append(list, n.children[k].export())
		}
		return list
	}
	m := make(map[string]any, len(n.children))
	for k, c := range n.children {
		m[k] = c.export()
	}
	return m
}

// asList returns v as a list. Maps are turned into the list of their values
// ordered by key; a scalar becomes a one-element list.
func asList(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return x
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, x[k])
		}
		return out
	default:
		return []any{x}
	}
}

// recordList is asList for lists of records: a map holding any of the
// record's own field names is one record rather than a keyed list.
func recordList(v any, fields ...string) []any {
	if m, ok := v.(map[string]any); ok {
		for _, f := range fields {
			if _, ok := m[f]; ok {
				return []any{m}
			}
		}
	}
	return asList(v)
}
