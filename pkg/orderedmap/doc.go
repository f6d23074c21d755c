// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package orderedmap provides a map implementation where the order of keys is
maintained (unlike the native Go map).

Document mappings are always *orderedmap.Map: key order mirrors the field
order declared by the target schema, so it has to survive loading, directive
resolution and rendering untouched.
*/
package orderedmap
