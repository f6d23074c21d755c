// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package builtins

import (
	"fmt"
	"path/filepath"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/document"
	"carvel.dev/zsyaml/pkg/nodepath"
)

type inserter struct {
	opts Opts
}

// InsertYAML returns the resolved content of another file (or the node
// selected from it by node_path).
func (i inserter) InsertYAML(ctx *directive.Context, args directive.Args) (interface{}, error) {
	_, resolved, err := i.load(ctx, args)
	return resolved, err
}

// InsertYAMLAsExtern resolves content like InsertYAML and returns it
// binary-encoded with the schema named by the file's own metadata, or
// else by schema_type and the converted document's schema module.
func (i inserter) InsertYAMLAsExtern(ctx *directive.Context, args directive.Args) (interface{}, error) {
	if i.opts.Backend == nil {
		return nil, fmt.Errorf("Expected a serialization backend to be configured")
	}

	frag, resolved, err := i.load(ctx, args)
	if err != nil {
		return nil, err
	}

	schemaType, err := args.OptionalString("schema_type")
	if err != nil {
		return nil, err
	}

	ref := i.opts.Schema
	var initArgs []interface{}

	switch {
	case frag.Meta != nil && len(frag.Meta.SchemaModule) > 0:
		ref = backend.TypeRef{
			Module: frag.Meta.SchemaModule,
			Type:   frag.Meta.SchemaType,
			Dir:    filepath.Dir(frag.Path),
		}
		initArgs = frag.Meta.InitArgs
		if len(ref.Type) == 0 {
			ref.Type = schemaType
		}
	case len(schemaType) > 0:
		ref.Type = schemaType
	}

	if len(ref.Module) == 0 || len(ref.Type) == 0 {
		return nil, fmt.Errorf("Expected schema module and type for '%s' (set them in its _meta or pass schema_type)", frag.Path)
	}

	ctx.Debugf("encode: %s as %s\n", frag.Path, ref)

	inst, err := i.opts.Backend.Construct(ref, resolved, initArgs)
	if err != nil {
		return nil, err
	}
	return i.opts.Backend.EncodeBinary(inst)
}

func (i inserter) load(ctx *directive.Context, args directive.Args) (*document.Fragment, interface{}, error) {
	file, err := args.String("file")
	if err != nil {
		return nil, nil, err
	}
	nodePathExpr, err := args.OptionalString("node_path")
	if err != nil {
		return nil, nil, err
	}
	templateArgs, err := args.OptionalMap("template_args")
	if err != nil {
		return nil, nil, err
	}

	path, err := nodepath.Parse(nodePathExpr)
	if err != nil {
		return nil, nil, err
	}

	absFile := ctx.RelativePath(file)

	includeCtx, err := ctx.Include(absFile)
	if err != nil {
		return nil, nil, err
	}

	frag, err := document.ReadFragment(absFile, document.ReadOpts{TemplateArgs: templateArgs})
	if err != nil {
		return nil, nil, err
	}

	node, err := path.Lookup(frag.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("Selecting node in '%s': %w", absFile, err)
	}

	resolved, err := includeCtx.WithPath(path).Resolve(node)
	if err != nil {
		return nil, nil, err
	}
	return frag, resolved, nil
}
