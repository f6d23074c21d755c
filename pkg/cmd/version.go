// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"carvel.dev/zsyaml/pkg/cmd/ui"
	"carvel.dev/zsyaml/pkg/version"
	"github.com/spf13/cobra"
)

type VersionOptions struct {
	ui ui.UI
}

func NewVersionOptions() *VersionOptions {
	return &VersionOptions{ui: ui.NewTTY(false)}
}

func NewVersionCmd(o *VersionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	return cmd
}

func (o *VersionOptions) Run() error {
	o.ui.Printf("zs-yaml version %s\n", version.Version)

	return nil
}
