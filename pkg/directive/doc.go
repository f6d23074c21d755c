// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package directive implements the function registry and the recursive
resolver that replaces directive nodes with computed values.

A directive node is a mapping whose key set is exactly {_f, _a}:

	age:
	  _f: calculate_age
	  _a: "1990-05-15"

The resolver walks the tree depth-first. Arguments are resolved before the
function named by _f is invoked, unless the function asks for raw arguments
(see LazyFunc). The function's return value replaces the directive node and
is not scanned again; functions that embed external content call back into
the resolver through the Context they receive.
*/
package directive
