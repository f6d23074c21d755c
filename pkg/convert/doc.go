// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package convert runs conversions between editable documents and the
encoded forms produced by a serialization backend.

Document to binary/text: read the document, resolve directives in its data,
check field order against the schema, construct and encode. Binary/text to
document: decode using the metadata of the existing target document, run
its extract_extern_as_yaml directives against the decoded tree and replace
the target.

Outputs are written atomically; a failed conversion leaves no output.
*/
package convert
