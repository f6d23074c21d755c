// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package starlarkmod loads transformation modules written in Starlark and
exposes their top-level functions as directive functions.

A module is a .star file such as:

	def calculate_age(birthdate):
	    parts = birthdate.split("-")
	    today = clock.today()
	    age = today.year - int(parts[0])
	    if (today.month, today.day) < (int(parts[1]), int(parts[2])):
	        age -= 1
	    return age

Every top-level callable whose name does not start with "_" is registered.
A mapping argument is passed as keyword arguments; any other argument is
passed as the single positional argument.

Modules see two predeclared modules: clock (today() and now(), driven by
the converter's clock) and version (require_at_least(v)).
*/
package starlarkmod
