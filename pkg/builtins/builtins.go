// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package builtins

import (
	"fmt"
	"time"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/document"
)

const (
	InsertYAML          = "insert_yaml"
	InsertYAMLAsExtern  = "insert_yaml_as_extern"
	RepeatNode          = "repeat_node"
	ExtractExternAsYAML = "extract_extern_as_yaml"
	PyEval              = "py_eval"
	ExprEval            = "expr_eval"
)

type Opts struct {
	Backend backend.Backend
	// Schema is the converted document's schema; its Dir is the document's
	// directory. Functions fall back to it when content names no schema.
	Schema backend.TypeRef
	// Now is the clock seen by evaluated expressions.
	Now func() time.Time
	// Outputs receives documents written by extract_extern_as_yaml; the
	// caller writes them once the conversion succeeded. When nil they are
	// written right away.
	Outputs *document.Batch
}

type builtin struct {
	name   string
	params directive.Params
	lazy   bool
	call   func(ctx *directive.Context, args directive.Args) (interface{}, error)
}

var _ directive.LazyFunc = &builtin{}

func (b *builtin) Call(ctx *directive.Context, args interface{}) (interface{}, error) {
	// lazy built-ins defer their parameters, not a directive producing all of them
	if b.lazy && directive.IsDirective(args) {
		var err error
		args, err = ctx.WithPath(ctx.Path.Child(directive.ArgsKey)).Resolve(args)
		if err != nil {
			return nil, err
		}
	}

	boundArgs, err := b.params.Bind(args)
	if err != nil {
		return nil, err
	}
	return b.call(ctx, boundArgs)
}

func (b *builtin) LazyArgs() bool { return b.lazy }

// Register seeds reg with all built-ins. Built-ins already present are
// left as they are, so calling it twice is harmless.
func Register(reg *directive.Registry, opts Opts) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	insert := inserter{opts}
	extract := extractor{opts}
	eval := evaluator{opts}

	funcs := []*builtin{
		{name: InsertYAML, params: directive.Params{"file", "node_path", "template_args"}, call: insert.InsertYAML},
		{name: InsertYAMLAsExtern, params: directive.Params{"file", "node_path", "schema_type", "template_args"}, call: insert.InsertYAMLAsExtern},
		{name: RepeatNode, params: directive.Params{"count", "node"}, lazy: true, call: repeatNode},
		{name: ExtractExternAsYAML, params: directive.Params{"source_path", "out_file", "schema_type"}, call: extract.ExtractExternAsYAML},
		{name: PyEval, params: directive.Params{"expr", "env"}, call: eval.PyEval},
		{name: ExprEval, params: directive.Params{"expr", "env"}, call: eval.ExprEval},
	}

	for _, fn := range funcs {
		if existing, found := reg.Lookup(fn.name); found {
			if typedExisting, ok := existing.(*builtin); ok && typedExisting.name == fn.name {
				continue
			}
		}
		err := reg.Register(fn.name, fn)
		if err != nil {
			return fmt.Errorf("Registering built-in functions: %w", err)
		}
	}
	return nil
}
