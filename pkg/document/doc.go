// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package document reads and writes editable documents.

A document is a mapping whose reserved top-level key _meta holds the
Metadata block; every other key is data. YAML (and therefore JSON) is the
primary format; TOML files may be loaded as fragments. Mappings become
*orderedmap.Map so that key order survives a full read/write cycle.
*/
package document
