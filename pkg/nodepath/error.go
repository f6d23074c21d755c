// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package nodepath

import "fmt"

// PathError is returned for malformed path expressions and for
// segments that do not exist on the node they are applied to.
type PathError struct {
	Expr   string
	At     string
	Reason string
}

func (e *PathError) Error() string {
	if e.At != "" {
		return fmt.Sprintf("Path '%s': at '%s': %s", e.Expr, e.At, e.Reason)
	}
	return fmt.Sprintf("Path '%s': %s", e.Expr, e.Reason)
}
