// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"time"

	"carvel.dev/zsyaml/pkg/backend/cueschema"
	"carvel.dev/zsyaml/pkg/cmd/ui"
	"carvel.dev/zsyaml/pkg/convert"
	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/version"
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ZsYAMLOptions struct {
	Debug    bool
	MaxDepth int

	ui ui.UI
}

func NewDefaultZsYAMLOptions() *ZsYAMLOptions {
	return &ZsYAMLOptions{}
}

func NewDefaultZsYAMLCmd() *cobra.Command {
	return NewZsYAMLCmd(NewDefaultZsYAMLOptions())
}

func NewZsYAMLCmd(o *ZsYAMLOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "zs-yaml <input> <output>",
		Version: version.Version,
		Short:   "zs-yaml converts YAML documents to and from schema-encoded data",
		Long: `zs-yaml converts YAML documents to and from schema-encoded data.

Documents declare their schema in a _meta block and may compute values with
directives ({_f: <function>, _a: <args>}) that are resolved before encoding.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error { return o.Run(args[0], args[1]) },
	}
	o.BindFlags(cmd.Flags())

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	versionCmd := NewVersionCmd(NewVersionOptions())
	fmtCmd := NewFmtCmd(NewFmtOptions())

	cmd.AddCommand(versionCmd)
	cmd.AddCommand(fmtCmd)

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))
	cobrautil.VisitCommands(versionCmd, cobrautil.DisallowExtraArgs)
	cobrautil.VisitCommands(fmtCmd, cobrautil.DisallowExtraArgs)

	return cmd
}

func (o *ZsYAMLOptions) BindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug output")
	fs.IntVar(&o.MaxDepth, "max-depth", directive.DefaultMaxDepth, "Maximum nesting of included files")
}

func (o *ZsYAMLOptions) Run(in, out string) error {
	if o.ui == nil {
		o.ui = ui.NewTTY(o.Debug)
	}
	t1 := time.Now()

	defer func() {
		o.ui.Debugf("total: %s\n", time.Now().Sub(t1))
	}()

	conv := convert.Converter{
		Backend:  cueschema.New(),
		UI:       o.ui,
		MaxDepth: o.MaxDepth,
	}

	err := conv.Convert(in, out)
	if err != nil {
		return NewKindError(err)
	}
	return nil
}
