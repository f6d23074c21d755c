// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package builtins provides the directive functions available to every
// document: insert_yaml, insert_yaml_as_extern, repeat_node,
// extract_extern_as_yaml, py_eval and expr_eval.
package builtins
