// Package jsonpath walks decoded JSON documents with dotted, indexed paths
// such as "props.pageProps.listing.media.photos[0].originalUrl".
//
// Lookups never panic: a missing key, an out of range index or a type
// mismatch along the way yields an Absent node.
package jsonpath

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Node.
type Kind int

const (
	Absent Kind = iota
	Scalar
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is one position inside a document.
type Node struct {
	kind    Kind
	scalar  any
	seq     []any
	mapping map[string]any
}

var absent = Node{kind: Absent}

// FromJSON decodes data into a root Node. Numbers are kept as json.Number so
// that large identifiers survive untouched.
func FromJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return absent, fmt.Errorf("jsonpath: decode: %w", err)
	}
	return wrap(v), nil
}

// FromValue wraps an already decoded value.
func FromValue(v any) Node { return wrap(v) }

func wrap(v any) Node {
	switch t := v.(type) {
	case nil:
		return absent
	case map[string]any:
		return Node{kind: Mapping, mapping: t}
	case []any:
		return Node{kind: Sequence, seq: t}
	default:
		return Node{kind: Scalar, scalar: t}
	}
}

func (n Node) Kind() Kind     { return n.kind }
func (n Node) IsAbsent() bool { return n.kind == Absent }

// Value returns the underlying decoded value, nil when Absent.
func (n Node) Value() any {
	switch n.kind {
	case Scalar:
		return n.scalar
	case Sequence:
		return n.seq
	case Mapping:
		return n.mapping
	}
	return nil
}

// Key returns the child under name, or Absent unless n is a Mapping holding it.
func (n Node) Key(name string) Node {
	if n.kind != Mapping {
		return absent
	}
	v, ok := n.mapping[name]
	if !ok {
		return absent
	}
	return wrap(v)
}

// Index returns the i-th element, or Absent unless n is a Sequence long enough.
func (n Node) Index(i int) Node {
	if n.kind != Sequence || i < 0 || i >= len(n.seq) {
		return absent
	}
	return wrap(n.seq[i])
}

// Lookup follows path from n. Segments are separated by dots and may carry
// any number of [i] suffixes.
func (n Node) Lookup(path string) Node {
	steps, ok := parse(path)
	if !ok {
		return absent
	}
	cur := n
	for _, s := range steps {
		if cur.kind == Absent {
			return absent
		}
		if s.isIndex {
			cur = cur.Index(s.index)
		} else {
			cur = cur.Key(s.key)
		}
	}
	return cur
}

// String returns a string scalar as is; any other variant reports false.
func (n Node) String() (string, bool) {
	if n.kind != Scalar {
		return "", false
	}
	s, ok := n.scalar.(string)
	return s, ok
}

// Int returns a numeric scalar as an int64.
func (n Node) Int() (int64, bool) {
	if n.kind != Scalar {
		return 0, false
	}
	switch v := n.scalar.(type) {
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case float64:
		return int64(v), v == float64(int64(v))
	}
	return 0, false
}

// Text renders any present node as a single line of text. Strings are
// returned as is, other scalars in their JSON form, and composites as compact
// JSON with runs of whitespace collapsed to one space.
func (n Node) Text() (string, bool) {
	switch n.kind {
	case Absent:
		return "", false
	case Scalar:
		switch v := n.scalar.(type) {
		case string:
			return v, true
		case json.Number:
			return v.String(), true
		case bool:
			return strconv.FormatBool(v), true
		default:
			return fmt.Sprint(v), true
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n.Value()); err != nil {
		return "", false
	}
	return strings.Join(strings.Fields(buf.String()), " "), true
}

type step struct {
	key     string
	index   int
	isIndex bool
}

func parse(path string) ([]step, bool) {
	if path == "" {
		return nil, true
	}
	var steps []step
	for _, seg := range strings.Split(path, ".") {
		name := seg
		rest := ""
		if i := strings.IndexByte(seg, '['); i >= 0 {
			name, rest = seg[:i], seg[i:]
		}
		if name != "" {
			steps = append(steps, step{key: name})
		} else if rest == "" {
			return nil, false
		}
		for rest != "" {
			if rest[0] != '[' {
				return nil, false
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, false
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return nil, false
			}
			steps = append(steps, step{index: idx, isIndex: true})
			rest = rest[end+1:]
		}
	}
	return steps, true
}
