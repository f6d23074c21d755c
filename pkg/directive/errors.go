// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"fmt"
	"strings"
)

type UnknownFunctionError struct {
	Name  string
	Known []string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("Unknown function '%s' (registered: %s)", e.Name, strings.Join(e.Known, ", "))
}

type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Function '%s' is already registered", e.Name)
}

type ModuleLoadError struct {
	Path string
	Err  error
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("Loading transformation module '%s': %s", e.Path, e.Err)
}

func (e *ModuleLoadError) Unwrap() error { return e.Err }

type RecursionLimitError struct {
	File  string
	Depth int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("Including '%s': inclusion depth exceeds %d (does the file include itself?)", e.File, e.Depth)
}

// ResolveError tags a failure with the node that was being evaluated.
type ResolveError struct {
	File string
	Path string
	Func string
	Err  error
}

func (e *ResolveError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	var fn string
	if e.Func != "" {
		fn = fmt.Sprintf(" (function '%s')", e.Func)
	}
	return fmt.Sprintf("Resolving '%s' in '%s'%s: %s", path, e.File, fn, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
