// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package backend defines the boundary to the schema-driven serializer.

A Backend turns a resolved value tree into a typed instance, encodes it
into binary or canonical text form, and decodes those forms back into a
value tree whose mapping keys follow schema declaration order. Backends are
the sole authority on type validity.
*/
package backend
