// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"time"

	"carvel.dev/zsyaml/pkg/cmd/ui"
	"carvel.dev/zsyaml/pkg/document"
	"github.com/spf13/cobra"
)

type FmtOptions struct {
	Files []string
	Debug bool

	ui ui.UI
}

func NewFmtOptions() *FmtOptions {
	return &FmtOptions{}
}

func NewFmtCmd(o *FmtOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Print documents in canonical YAML form (metadata first, 2-space indent)",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	cmd.Flags().StringArrayVarP(&o.Files, "file", "f", nil, "Document path (YAML, JSON or TOML) (can be specified multiple times)")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	return cmd
}

func (o *FmtOptions) Run() error {
	if o.ui == nil {
		o.ui = ui.NewTTY(o.Debug)
	}
	t1 := time.Now()

	defer func() {
		o.ui.Debugf("total: %s\n", time.Now().Sub(t1))
	}()

	for i, path := range o.Files {
		doc, err := document.ReadFile(path, document.ReadOpts{})
		if err != nil {
			return NewKindError(err)
		}

		bs, err := doc.Bytes()
		if err != nil {
			return err
		}

		if i > 0 {
			o.ui.Printf("---\n")
		}
		o.ui.Printf("%s", bs)
	}

	return nil
}
