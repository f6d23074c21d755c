// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package nodepath locates a sub-node inside a loaded document tree.

A path is a chain of mapping keys separated by dots and non-negative sequence
indices in brackets:

	name
	members[0].address.city
	[0].detailed

The empty path denotes the root itself.
*/
package nodepath
