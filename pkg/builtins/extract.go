// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package builtins

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/document"
	"carvel.dev/zsyaml/pkg/nodepath"
	"carvel.dev/zsyaml/pkg/orderedmap"
)

type extractor struct {
	opts Opts
}

// ExtractExternAsYAML decodes the embedded binary found at source_path of
// the decoded source, writes it to out_file as an editable document and
// returns the directive that embeds it again.
func (e extractor) ExtractExternAsYAML(ctx *directive.Context, args directive.Args) (interface{}, error) {
	if ctx.Source == nil {
		return nil, fmt.Errorf("Expected to run while converting back to a document (no decoded source available)")
	}
	if e.opts.Backend == nil {
		return nil, fmt.Errorf("Expected a serialization backend to be configured")
	}

	sourcePathExpr, err := args.String("source_path")
	if err != nil {
		return nil, err
	}
	outFile, err := args.String("out_file")
	if err != nil {
		return nil, err
	}
	schemaType, err := args.OptionalString("schema_type")
	if err != nil {
		return nil, err
	}

	sourcePath, err := nodepath.Parse(sourcePathExpr)
	if err != nil {
		return nil, err
	}
	val, err := sourcePath.Lookup(ctx.Source)
	if err != nil {
		return nil, err
	}
	data, ok := val.([]byte)
	if !ok {
		return nil, fmt.Errorf("Expected '%s' to hold binary data, but was %s", sourcePath, nodepath.KindOf(val))
	}

	absOutFile := ctx.RelativePath(outFile)

	ref, err := e.typeRef(absOutFile, schemaType)
	if err != nil {
		return nil, err
	}

	inst, err := e.opts.Backend.DecodeBinary(ref, data, nil)
	if err != nil {
		return nil, err
	}
	tree, err := e.opts.Backend.ToValueTree(inst)
	if err != nil {
		return nil, err
	}
	treeMap, ok := tree.(*orderedmap.Map)
	if !ok {
		return nil, fmt.Errorf("Expected extracted value to be a mapping, but was %s", nodepath.KindOf(tree))
	}

	moduleRel, err := filepath.Rel(filepath.Dir(absOutFile), filepath.Join(ref.Dir, ref.Module))
	if err != nil {
		return nil, fmt.Errorf("Relativizing schema module: %w", err)
	}

	doc := &document.Document{
		Path: absOutFile,
		Meta: document.NewMeta(filepath.ToSlash(moduleRel), ref.Type),
		Data: treeMap,
	}

	ctx.Debugf("extract: %s -> %s as %s\n", sourcePath, absOutFile, ref)

	if e.opts.Outputs != nil {
		e.opts.Outputs.Add(doc)
	} else {
		err = doc.WriteFile(absOutFile)
		if err != nil {
			return nil, err
		}
	}

	placeholderArgs := orderedmap.NewMap()
	placeholderArgs.Set("file", outFile)
	placeholderArgs.Set("schema_type", ref.Type)

	return directive.NewDirective(InsertYAMLAsExtern, placeholderArgs), nil
}

// typeRef uses schema_type when given, otherwise the type recorded in an
// existing out_file.
func (e extractor) typeRef(absOutFile, schemaType string) (backend.TypeRef, error) {
	ref := e.opts.Schema
	ref.Type = schemaType

	if len(ref.Type) == 0 {
		prev, err := document.ReadFragment(absOutFile, document.ReadOpts{})
		switch {
		case err == nil && prev.Meta != nil && len(prev.Meta.SchemaType) > 0:
			ref.Type = prev.Meta.SchemaType
			if len(prev.Meta.SchemaModule) > 0 {
				ref.Module = prev.Meta.SchemaModule
				ref.Dir = filepath.Dir(absOutFile)
			}
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return backend.TypeRef{}, err
		}
	}

	if len(ref.Module) == 0 || len(ref.Type) == 0 {
		return backend.TypeRef{}, fmt.Errorf("Expected argument 'schema_type' to be provided")
	}
	return ref, nil
}
