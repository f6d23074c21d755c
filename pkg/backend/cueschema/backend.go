// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cueschema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/orderedmap"
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

const argsField = "#args"

type Backend struct {
	ctx *cue.Context

	mu      sync.Mutex
	modules map[string]cue.Value
}

var _ backend.Backend = &Backend{}
var _ backend.LayoutProvider = &Backend{}

func New() *Backend {
	return &Backend{ctx: cuecontext.New(), modules: map[string]cue.Value{}}
}

type Instance struct {
	ref    backend.TypeRef
	layout *backend.Layout
	tree   interface{}
}

var _ backend.Instance = &Instance{}

func (i *Instance) Type() backend.TypeRef    { return i.ref }
func (i *Instance) Layout() *backend.Layout { return i.layout }

func (b *Backend) Layout(ref backend.TypeRef, initArgs []interface{}) (*backend.Layout, error) {
	_, layout, err := b.typeValue(ref, initArgs)
	if err != nil {
		return nil, &backend.Error{Op: "layout", Type: ref, Err: err}
	}
	return layout, nil
}

func (b *Backend) Construct(ref backend.TypeRef, tree interface{}, initArgs []interface{}) (backend.Instance, error) {
	inst, err := b.construct(ref, tree, initArgs)
	if err != nil {
		return nil, &backend.Error{Op: "construct", Type: ref, Err: err}
	}
	return inst, nil
}

func (b *Backend) EncodeBinary(inst backend.Instance) ([]byte, error) {
	typedInst, err := b.instance(inst)
	if err != nil {
		return nil, err
	}
	bs, err := binaryEncoder{}.Encode(typedInst.layout, typedInst.tree)
	if err != nil {
		return nil, &backend.Error{Op: "binary encode", Type: typedInst.ref, Err: err}
	}
	return bs, nil
}

func (b *Backend) EncodeText(inst backend.Instance) ([]byte, error) {
	typedInst, err := b.instance(inst)
	if err != nil {
		return nil, err
	}
	bs, err := textEncoder{}.Encode(typedInst.layout, typedInst.tree)
	if err != nil {
		return nil, &backend.Error{Op: "text encode", Type: typedInst.ref, Err: err}
	}
	return bs, nil
}

func (b *Backend) DecodeBinary(ref backend.TypeRef, data []byte, initArgs []interface{}) (backend.Instance, error) {
	_, layout, err := b.typeValue(ref, initArgs)
	if err != nil {
		return nil, &backend.Error{Op: "binary decode", Type: ref, Err: err}
	}
	tree, err := binaryDecoder{}.Decode(layout, data)
	if err != nil {
		return nil, &backend.Error{Op: "binary decode", Type: ref, Err: err}
	}
	return b.Construct(ref, tree, initArgs)
}

func (b *Backend) DecodeText(ref backend.TypeRef, data []byte, initArgs []interface{}) (backend.Instance, error) {
	_, layout, err := b.typeValue(ref, initArgs)
	if err != nil {
		return nil, &backend.Error{Op: "text decode", Type: ref, Err: err}
	}
	tree, err := textDecoder{}.Decode(layout, data)
	if err != nil {
		return nil, &backend.Error{Op: "text decode", Type: ref, Err: err}
	}
	return b.Construct(ref, tree, initArgs)
}

func (b *Backend) ToValueTree(inst backend.Instance) (interface{}, error) {
	typedInst, err := b.instance(inst)
	if err != nil {
		return nil, err
	}
	return orderedmap.Conversion{Object: typedInst.tree}.DeepCopy(), nil
}

func (b *Backend) instance(inst backend.Instance) (*Instance, error) {
	typedInst, ok := inst.(*Instance)
	if !ok {
		return nil, fmt.Errorf("Expected instance created by cueschema backend, but was %T", inst)
	}
	return typedInst, nil
}

// typeValue finds the schema type and fills in initialization arguments.
func (b *Backend) typeValue(ref backend.TypeRef, initArgs []interface{}) (cue.Value, *backend.Layout, error) {
	module, err := b.module(ref)
	if err != nil {
		return cue.Value{}, nil, err
	}

	typeVal, err := lookupType(module, ref.Type)
	if err != nil {
		return cue.Value{}, nil, err
	}

	argsPath := cue.ParsePath(argsField)
	if typeVal.LookupPath(argsPath).Exists() {
		if initArgs == nil {
			initArgs = []interface{}{}
		}
		typeVal = typeVal.FillPath(argsPath, initArgs)
	} else if len(initArgs) > 0 {
		return cue.Value{}, nil, fmt.Errorf("Type '%s' declares no %s, but %d initialization arguments were given",
			ref.Type, argsField, len(initArgs))
	}

	if err := typeVal.Err(); err != nil {
		return cue.Value{}, nil, fmt.Errorf("Applying initialization arguments: %s", cueerrors.Details(err, nil))
	}

	layout, err := layoutBuilder{}.Build(typeVal, 0)
	if err != nil {
		return cue.Value{}, nil, err
	}
	return typeVal, layout, nil
}

func (b *Backend) module(ref backend.TypeRef) (cue.Value, error) {
	path := ref.Module
	if !filepath.IsAbs(path) {
		path = filepath.Join(ref.Dir, path)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if val, found := b.modules[path]; found {
		return val, nil
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("Reading schema module: %w", err)
	}

	val := b.ctx.CompileBytes(bs, cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("Compiling schema module '%s': %s", path, cueerrors.Details(err, nil))
	}

	b.modules[path] = val
	return val, nil
}

func lookupType(module cue.Value, name string) (cue.Value, error) {
	candidates := []string{name}
	if !strings.HasPrefix(name, "#") {
		candidates = []string{"#" + name, name}
	}
	for _, candidate := range candidates {
		path := cue.ParsePath(candidate)
		if path.Err() != nil {
			continue
		}
		val := module.LookupPath(path)
		if val.Exists() {
			return val, nil
		}
	}
	return cue.Value{}, fmt.Errorf("Expected schema module to declare type '%s'", name)
}
