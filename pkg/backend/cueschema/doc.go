// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package cueschema is a backend.Backend whose schemas are CUE files.

The schema module is a .cue file (relative to the document that names it)
and the schema type is a definition in it, for example:

	#Team: {
		name:    string
		members: [...#Member]
		logo?:   bytes
	}

CUE validates every constructed value. Encoding is driven by the type's
layout: the binary form writes fields in declaration order (optional
fields behind a presence byte, integers as zig-zag varints, floats as
IEEE-754, strings/bytes/lists length-prefixed); the text form is JSON with
keys in declaration order.

Types taking initialization arguments declare them as a #args list, which
is filled with the document's initialization_args before validation.
*/
package cueschema
