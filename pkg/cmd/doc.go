// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package cmd is home to zs-yaml's commands -- instances of cobra.Command
(not to be confused with ./cmd which contains the bootstrapping for executing zs-yaml).

The root command converts between documents and encoded data:

	$ zs-yaml team.yaml team.bin     # resolve and encode
	$ zs-yaml team.bin team.yaml     # decode into the existing document
	$ zs-yaml team.yaml team.json    # resolve and encode as text
	$ zs-yaml team.yaml plain.yaml   # resolve only

The direction is chosen by file extension.
*/
package cmd
