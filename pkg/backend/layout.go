// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Layout describes a schema type: struct fields in declaration order, or
// the element layout of a list.
type Layout struct {
	Kind   Kind
	Fields []Field
	Elem   *Layout
}

type Field struct {
	Name     string
	Optional bool
	Layout   *Layout
}

// FieldIndex returns the declaration position of name, or -1.
func (l *Layout) FieldIndex(name string) int {
	for i, f := range l.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (l *Layout) FieldNames() []string {
	var names []string
	for _, f := range l.Fields {
		names = append(names, f.Name)
	}
	return names
}

func (l *Layout) String() string {
	switch l.Kind {
	case KindStruct:
		var fields []string
		for _, f := range l.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			fields = append(fields, fmt.Sprintf("%s%s: %s", f.Name, opt, f.Layout))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case KindList:
		return "[..." + l.Elem.String() + "]"
	default:
		return l.Kind.String()
	}
}
