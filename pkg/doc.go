// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package pkg is the collection of packages that make up the implementation of zs-yaml.

Packages are layered; each depends on the others only as far as it must.
In the inventory below, individual packages are named alongside their coupling
with the other packages in the codebase.

	(# of dependents) => <package name> => (# of dependencies)

# Entry Point

zs-yaml is built into a single command-line tool:

	./cmd/zs-yaml

	(1) => pkg/cmd => (8)

# Conversion

A conversion reads a document, resolves its directives, checks field order
against the schema and hands the result to a schema backend (or the reverse).

	(1) => pkg/convert => (8)

# Directives

A directive is a mapping of the shape {_f: <function>, _a: <args>}. The
resolver replaces directives bottom-up with the value their function returns.
Built-in functions (file inclusion, repetition, extern encoding, expression
evaluation) are registered alongside functions from a Starlark transformation
module.

	(4) => pkg/directive => (2)
	(1) => pkg/builtins => (6)
	(2) => pkg/starlarkmod => (3)

# Schemas

Backends turn resolved values into typed instances and encode them. The CUE
backend reads definitions from a .cue module.

	(4) => pkg/backend => (0)
	(1) => pkg/backend/cueschema => (4)

# Documents

Documents are YAML, JSON or TOML files with an optional _meta block naming
the schema and the transformation module.

	(4) => pkg/document => (2)
	(6) => pkg/nodepath => (1)

# Utilities

	(2) => pkg/cmd/ui => (0)
	(7) => pkg/orderedmap => (0)
	(2) => pkg/version => (0)
*/
package pkg
