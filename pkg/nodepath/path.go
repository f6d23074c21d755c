// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package nodepath

import (
	"fmt"
	"strconv"
	"strings"

	"carvel.dev/zsyaml/pkg/orderedmap"
)

// Segment is either a mapping key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func KeySegment(key string) Segment { return Segment{Key: key} }
func IndexSegment(i int) Segment   { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return fmt.Sprintf("[%d]", s.Index)
	}
	return s.Key
}

type Path []Segment

// Root is the empty path.
var Root = Path{}

// MustParse is like Parse but panics on malformed expressions.
func MustParse(expr string) Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func Parse(expr string) (Path, error) {
	path := Path{}
	i := 0

	for i < len(expr) {
		switch expr[i] {
		case '[':
			end := strings.IndexByte(expr[i:], ']')
			if end < 0 {
				return nil, &PathError{Expr: expr, Reason: fmt.Sprintf("unterminated index at offset %d", i)}
			}
			digits := expr[i+1 : i+end]
			idx, err := strconv.Atoi(digits)
			if err != nil || idx < 0 || strings.HasPrefix(digits, "+") {
				return nil, &PathError{Expr: expr, Reason: fmt.Sprintf("expected non-negative integer index, got '%s'", digits)}
			}
			path = append(path, IndexSegment(idx))
			i += end + 1

			if i < len(expr) && expr[i] != '.' && expr[i] != '[' {
				return nil, &PathError{Expr: expr, Reason: fmt.Sprintf("unexpected '%c' after index at offset %d", expr[i], i)}
			}

		case '.':
			if len(path) == 0 || i == len(expr)-1 {
				return nil, &PathError{Expr: expr, Reason: fmt.Sprintf("empty key at offset %d", i)}
			}
			i++
			if expr[i] == '.' || expr[i] == '[' {
				return nil, &PathError{Expr: expr, Reason: fmt.Sprintf("empty key at offset %d", i)}
			}

		case ']':
			return nil, &PathError{Expr: expr, Reason: fmt.Sprintf("unexpected ']' at offset %d", i)}

		default:
			end := strings.IndexAny(expr[i:], ".[]")
			if end < 0 {
				end = len(expr) - i
			}
			path = append(path, KeySegment(expr[i:i+end]))
			i += end
		}
	}

	return path, nil
}

func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p {
		if !seg.IsIndex && i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// Child returns a new path extended by a mapping key.
func (p Path) Child(key string) Path { return p.append(KeySegment(key)) }

// Elem returns a new path extended by a sequence index.
func (p Path) Elem(i int) Path { return p.append(IndexSegment(i)) }

func (p Path) append(seg Segment) Path {
	result := make(Path, len(p), len(p)+1)
	copy(result, p)
	return append(result, seg)
}

func (p Path) IsRoot() bool { return len(p) == 0 }

// Lookup follows every segment starting at root.
func (p Path) Lookup(root interface{}) (interface{}, error) {
	node := root
	for i, seg := range p {
		next, err := p.step(node, seg, i)
		if err != nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}

// Set replaces the node at the path. Indices must already exist;
// missing keys are appended to their mapping.
func (p Path) Set(root interface{}, value interface{}) error {
	if p.IsRoot() {
		return &PathError{Expr: p.String(), Reason: "cannot replace root"}
	}

	parent, err := p[:len(p)-1].Lookup(root)
	if err != nil {
		return p.rebase(err)
	}

	last := p[len(p)-1]
	if last.IsIndex {
		seq, ok := parent.([]interface{})
		if !ok {
			return p.mismatch(len(p)-1, "sequence", parent)
		}
		if last.Index >= len(seq) {
			return p.outOfBounds(len(p)-1, len(seq))
		}
		seq[last.Index] = value
		return nil
	}

	m, ok := parent.(*orderedmap.Map)
	if !ok {
		return p.mismatch(len(p)-1, "mapping", parent)
	}
	m.Set(last.Key, value)
	return nil
}

func (p Path) step(node interface{}, seg Segment, i int) (interface{}, error) {
	if seg.IsIndex {
		seq, ok := node.([]interface{})
		if !ok {
			return nil, p.mismatch(i, "sequence", node)
		}
		if seg.Index >= len(seq) {
			return nil, p.outOfBounds(i, len(seq))
		}
		return seq[seg.Index], nil
	}

	m, ok := node.(*orderedmap.Map)
	if !ok {
		return nil, p.mismatch(i, "mapping", node)
	}
	val, found := m.Get(seg.Key)
	if !found {
		return nil, &PathError{Expr: p.String(), At: p[:i].String(),
			Reason: fmt.Sprintf("key '%s' not found", seg.Key)}
	}
	return val, nil
}

func (p Path) mismatch(i int, expected string, node interface{}) error {
	return &PathError{Expr: p.String(), At: p[:i].String(),
		Reason: fmt.Sprintf("expected %s for segment '%s', but was %s", expected, p[i], KindOf(node))}
}

func (p Path) outOfBounds(i, length int) error {
	return &PathError{Expr: p.String(), At: p[:i].String(),
		Reason: fmt.Sprintf("index %d out of bounds (length %d)", p[i].Index, length)}
}

func (p Path) rebase(err error) error {
	if pathErr, ok := err.(*PathError); ok {
		pathErr.Expr = p.String()
	}
	return err
}

// KindOf names the node kind for diagnostics.
func KindOf(node interface{}) string {
	switch node.(type) {
	case nil:
		return "null"
	case *orderedmap.Map:
		return "mapping"
	case []interface{}:
		return "sequence"
	case []byte:
		return "bytes"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", node)
	}
}
