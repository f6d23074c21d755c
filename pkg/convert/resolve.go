// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"fmt"
	"path/filepath"
	"time"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/builtins"
	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/document"
	"carvel.dev/zsyaml/pkg/orderedmap"
	"carvel.dev/zsyaml/pkg/starlarkmod"
)

// resolve returns the document's data with all directives resolved.
func (c Converter) resolve(doc *document.Document, ref backend.TypeRef) (*orderedmap.Map, error) {
	resolver, err := c.resolver(doc, ref, nil)
	if err != nil {
		return nil, err
	}

	ctx := resolver.NewContext(doc.Path, c.contextOpts(nil))

	resolved, err := resolver.Resolve(ctx, doc.Data)
	if err != nil {
		return nil, err
	}

	err = directive.CheckResolved(resolved)
	if err != nil {
		return nil, fmt.Errorf("Resolving '%s': %w", doc.Path, err)
	}

	return resolved.(*orderedmap.Map), nil
}

// resolver builds a fresh frozen registry: built-ins first, then the
// functions of the document's transformation module. Documents extracted
// during resolution are queued on outputs.
func (c Converter) resolver(doc *document.Document, ref backend.TypeRef, outputs *document.Batch) (*directive.Resolver, error) {
	reg := directive.NewRegistry()

	err := builtins.Register(reg, builtins.Opts{Backend: c.Backend, Schema: ref, Now: c.now(), Outputs: outputs})
	if err != nil {
		return nil, err
	}

	if doc.Meta != nil && len(doc.Meta.TransformationModule) > 0 {
		path := doc.Meta.TransformationModule
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(doc.Path), path)
		}

		c.debugf("load: transformation module %s\n", path)

		mod, err := starlarkmod.Load(path, starlarkmod.Opts{Now: c.now()})
		if err != nil {
			return nil, err
		}
		err = mod.Register(reg)
		if err != nil {
			return nil, err
		}
	}

	reg.Freeze()

	return directive.NewResolver(reg), nil
}

func (c Converter) contextOpts(source interface{}) directive.ContextOpts {
	return directive.ContextOpts{MaxDepth: c.MaxDepth, Source: source, Debugf: c.debugf}
}

func (c Converter) checkOrder(ref backend.TypeRef, initArgs []interface{}, tree interface{}) error {
	provider, ok := c.Backend.(backend.LayoutProvider)
	if !ok {
		return nil
	}
	layout, err := provider.Layout(ref, initArgs)
	if err != nil {
		return err
	}
	return orderCheck{}.Check(layout, tree)
}

func (c Converter) now() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

func (c Converter) debugf(str string, args ...interface{}) {
	if c.UI != nil {
		c.UI.Debugf(str, args...)
	}
}
