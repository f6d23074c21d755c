// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/cmd/ui"
	"carvel.dev/zsyaml/pkg/document"
)

type Converter struct {
	Backend backend.Backend
	UI      ui.UI
	// Now is the clock seen by transformation functions; defaults to time.Now.
	Now func() time.Time
	// MaxDepth limits nested file inclusion; defaults to directive.DefaultMaxDepth.
	MaxDepth int
}

// Convert picks the direction from the file extensions of in and out.
func (c Converter) Convert(in, out string) error {
	inFormat, outFormat := document.FormatOf(in), document.FormatOf(out)
	inIsDoc := inFormat == document.FormatYAML || inFormat == document.FormatTOML

	switch {
	case inIsDoc && outFormat == document.FormatJSON:
		return c.DocumentToText(in, out)
	case inIsDoc && outFormat == document.FormatYAML:
		return c.DocumentToDocument(in, out)
	case inIsDoc && outFormat == document.FormatUnknown:
		return c.DocumentToBinary(in, out)
	case inFormat == document.FormatJSON && outFormat == document.FormatYAML:
		return c.TextToDocument(in, out)
	case inFormat == document.FormatUnknown && outFormat == document.FormatYAML:
		return c.BinaryToDocument(in, out)
	default:
		return &UnsupportedConversionError{Input: in, Output: out}
	}
}

func (c Converter) DocumentToBinary(in, out string) error {
	return c.documentToEncoded(in, out, c.Backend.EncodeBinary)
}

func (c Converter) DocumentToText(in, out string) error {
	return c.documentToEncoded(in, out, c.Backend.EncodeText)
}

func (c Converter) BinaryToDocument(in, target string) error {
	return c.encodedToDocument(in, target, c.Backend.DecodeBinary)
}

func (c Converter) TextToDocument(in, target string) error {
	return c.encodedToDocument(in, target, c.Backend.DecodeText)
}

// DocumentToDocument resolves directives and writes the plain document,
// keeping its metadata.
func (c Converter) DocumentToDocument(in, out string) error {
	doc, err := document.ReadFile(in, document.ReadOpts{})
	if err != nil {
		return err
	}

	var ref backend.TypeRef
	if doc.Meta != nil {
		ref = c.typeRef(doc.Meta, doc.Path)
	}

	resolved, err := c.resolve(doc, ref)
	if err != nil {
		return err
	}

	c.debugf("write: %s\n", out)

	return (&document.Document{Path: out, Meta: doc.Meta, Data: resolved}).WriteFile(out)
}

func (c Converter) documentToEncoded(in, out string, encode func(backend.Instance) ([]byte, error)) error {
	doc, err := document.ReadFile(in, document.ReadOpts{})
	if err != nil {
		return err
	}

	err = doc.Meta.Validate()
	if err != nil {
		return fmt.Errorf("Reading metadata of '%s': %w", in, err)
	}

	ref := c.typeRef(doc.Meta, doc.Path)

	resolved, err := c.resolve(doc, ref)
	if err != nil {
		return err
	}

	err = c.checkOrder(ref, doc.Meta.InitArgs, resolved)
	if err != nil {
		return err
	}

	inst, err := c.Backend.Construct(ref, resolved, doc.Meta.InitArgs)
	if err != nil {
		return err
	}

	bs, err := encode(inst)
	if err != nil {
		return err
	}

	c.debugf("write: %s (%d bytes)\n", out, len(bs))

	return document.WriteFileAtomic(out, bs)
}

type decodeFunc func(ref backend.TypeRef, data []byte, initArgs []interface{}) (backend.Instance, error)

func (c Converter) encodedToDocument(in, target string, decode decodeFunc) error {
	targetDoc, err := document.ReadFile(target, document.ReadOpts{})
	if err != nil {
		return fmt.Errorf("Reading target document for its metadata: %w", err)
	}

	err = targetDoc.Meta.Validate()
	if err != nil {
		return fmt.Errorf("Reading metadata of '%s': %w", target, err)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("Reading '%s': %w", in, err)
	}

	ref := c.typeRef(targetDoc.Meta, targetDoc.Path)

	inst, err := decode(ref, data, targetDoc.Meta.InitArgs)
	if err != nil {
		return err
	}

	tree, err := c.Backend.ToValueTree(inst)
	if err != nil {
		return err
	}

	outputs := &document.Batch{}

	treeMap, err := extraction{c, outputs}.Apply(targetDoc, ref, tree)
	if err != nil {
		return err
	}

	outputs.Add(&document.Document{Path: target, Meta: targetDoc.Meta, Data: treeMap})

	c.debugf("write: %s\n", strings.Join(outputs.Paths(), ", "))

	return outputs.WriteFiles()
}

func (c Converter) typeRef(meta *document.Meta, docPath string) backend.TypeRef {
	dir := filepath.Dir(docPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return backend.TypeRef{Module: meta.SchemaModule, Type: meta.SchemaType, Dir: dir}
}
