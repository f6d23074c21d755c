// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"fmt"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/builtins"
	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/document"
	"carvel.dev/zsyaml/pkg/nodepath"
	"carvel.dev/zsyaml/pkg/orderedmap"
)

var extractParams = directive.Params{"source_path", "out_file", "schema_type"}

// extraction runs the extract_extern_as_yaml directives of a target
// document against a freshly decoded tree, replacing each extracted value
// with the directive that embeds it again. Extracted documents are queued
// on outputs rather than written.
type extraction struct {
	c       Converter
	outputs *document.Batch
}

type extractSite struct {
	path nodepath.Path
	node *orderedmap.Map
}

func (e extraction) Apply(target *document.Document, ref backend.TypeRef, tree interface{}) (*orderedmap.Map, error) {
	treeMap, ok := tree.(*orderedmap.Map)
	if !ok {
		return nil, fmt.Errorf("Expected decoded value to be a mapping, but was %s", nodepath.KindOf(tree))
	}

	sites := e.find(target.Data, nodepath.Root, nil)
	if len(sites) == 0 {
		return treeMap, nil
	}

	source := orderedmap.Conversion{Object: treeMap}.DeepCopy()

	resolver, err := e.c.resolver(target, ref, e.outputs)
	if err != nil {
		return nil, err
	}
	rootCtx := resolver.NewContext(target.Path, e.c.contextOpts(source))

	for _, site := range sites {
		args, _ := site.node.Get(directive.ArgsKey)
		boundArgs, err := extractParams.Bind(args)
		if err != nil {
			return nil, fmt.Errorf("Extracting at '%s': %w", site.path, err)
		}
		sourcePathExpr, err := boundArgs.String("source_path")
		if err != nil {
			return nil, fmt.Errorf("Extracting at '%s': %w", site.path, err)
		}
		sourcePath, err := nodepath.Parse(sourcePathExpr)
		if err != nil {
			return nil, err
		}

		placeholder, err := resolver.Resolve(rootCtx.WithPath(site.path), site.node)
		if err != nil {
			return nil, err
		}

		err = sourcePath.Set(treeMap, placeholder)
		if err != nil {
			return nil, fmt.Errorf("Placing extracted reference at '%s': %w", sourcePath, err)
		}
	}

	return treeMap, nil
}

func (e extraction) find(node interface{}, path nodepath.Path, sites []extractSite) []extractSite {
	switch typedNode := node.(type) {
	case *orderedmap.Map:
		if directive.IsDirective(typedNode) {
			if name, _ := typedNode.Get(directive.FuncKey); name == builtins.ExtractExternAsYAML {
				sites = append(sites, extractSite{path: path, node: typedNode})
			}
			return sites
		}
		typedNode.Iterate(func(k string, v interface{}) {
			sites = e.find(v, path.Child(k), sites)
		})
		return sites

	case []interface{}:
		for i, item := range typedNode {
			sites = e.find(item, path.Elem(i), sites)
		}
		return sites

	default:
		return sites
	}
}
