// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"fmt"
	"strings"
)

// SchemaOrderError reports a mapping whose keys are not in schema field order.
type SchemaOrderError struct {
	Path     string
	Key      string
	Previous string
	Expected []string
}

func (e *SchemaOrderError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("Expected field '%s' to come before '%s' in '%s' (schema order: %s)",
		e.Key, e.Previous, path, strings.Join(e.Expected, ", "))
}

type UnsupportedConversionError struct {
	Input  string
	Output string
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("Unsupported conversion from '%s' to '%s' (expected one side to be a .yaml document)", e.Input, e.Output)
}
