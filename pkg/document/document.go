// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"carvel.dev/zsyaml/pkg/orderedmap"
)

const MetaKey = "_meta"

type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatJSON
	FormatTOML
)

var (
	yamlExts = []string{".yaml", ".yml"}
	jsonExts = []string{".json"}
	tomlExts = []string{".toml"}
)

// FormatOf infers the document format from a file extension.
func FormatOf(path string) Format {
	switch {
	case matchesExt(path, yamlExts):
		return FormatYAML
	case matchesExt(path, jsonExts):
		return FormatJSON
	case matchesExt(path, tomlExts):
		return FormatTOML
	default:
		return FormatUnknown
	}
}

func matchesExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

type Document struct {
	Path string
	// Meta is nil when the document has no _meta block.
	Meta *Meta
	Data *orderedmap.Map
}

type ReadOpts struct {
	// TemplateArgs are substituted into the raw text before parsing.
	TemplateArgs *orderedmap.Map
}

// ReadFile loads and parses path. The file is read fully and closed
// before parsing.
func ReadFile(path string, opts ReadOpts) (*Document, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Reading document '%s': %w", path, err)
	}

	if opts.TemplateArgs != nil && opts.TemplateArgs.Len() > 0 {
		bs = []byte(Substitute(string(bs), opts.TemplateArgs))
	}

	doc, err := Parse(bs, formatOrYAML(path), path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func formatOrYAML(path string) Format {
	format := FormatOf(path)
	if format == FormatUnknown {
		return FormatYAML
	}
	return format
}

// Fragment is included content. Unlike a Document its root may be any node;
// a mapping root still has its _meta block split out.
type Fragment struct {
	Path string
	Meta *Meta
	Root interface{}
}

func ReadFragment(path string, opts ReadOpts) (*Fragment, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Reading fragment '%s': %w", path, err)
	}

	if opts.TemplateArgs != nil && opts.TemplateArgs.Len() > 0 {
		bs = []byte(Substitute(string(bs), opts.TemplateArgs))
	}

	root, err := parseRoot(bs, formatOrYAML(path))
	if err != nil {
		return nil, fmt.Errorf("Parsing fragment '%s': %w", path, err)
	}

	frag := &Fragment{Path: path, Root: root}

	if m, ok := root.(*orderedmap.Map); ok {
		if metaVal, found := m.Get(MetaKey); found {
			m.Delete(MetaKey)
			frag.Meta, err = NewMetaFromNode(metaVal)
			if err != nil {
				return nil, fmt.Errorf("Parsing fragment '%s': %w", path, err)
			}
		}
	}

	return frag, nil
}

func parseRoot(bs []byte, format Format) (interface{}, error) {
	if format == FormatTOML {
		return ParseTOML(bs)
	}
	return ParseYAML(bs)
}

// Parse splits a parsed document into its Metadata block and data.
func Parse(bs []byte, format Format, name string) (*Document, error) {
	root, err := parseRoot(bs, format)
	if err != nil {
		return nil, fmt.Errorf("Parsing document '%s': %w", name, err)
	}

	doc := &Document{Path: name, Data: orderedmap.NewMap()}

	switch typedRoot := root.(type) {
	case nil:
		return doc, nil
	case *orderedmap.Map:
		doc.Data = typedRoot
	default:
		return nil, fmt.Errorf("Parsing document '%s': expected root to be a mapping", name)
	}

	if metaVal, found := doc.Data.Get(MetaKey); found {
		doc.Data.Delete(MetaKey)
		doc.Meta, err = NewMetaFromNode(metaVal)
		if err != nil {
			return nil, fmt.Errorf("Parsing document '%s': %w", name, err)
		}
	}

	return doc, nil
}

// Bytes renders the document as YAML with _meta first.
func (d *Document) Bytes() ([]byte, error) {
	root := orderedmap.NewMap()
	if d.Meta != nil {
		root.Set(MetaKey, d.Meta.Node())
	}
	d.Data.Iterate(func(k string, v interface{}) {
		root.Set(k, v)
	})
	return MarshalYAML(root)
}

// WriteFile writes the document atomically.
func (d *Document) WriteFile(path string) error {
	bs, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("Rendering document '%s': %w", path, err)
	}
	return WriteFileAtomic(path, bs)
}

// WriteFileAtomic writes into a temporary file next to path and renames it
// into place, so that a failed write leaves the previous file untouched.
func WriteFileAtomic(path string, data []byte) error {
	tmpPath, err := stageFile(path, data)
	if err != nil {
		return err
	}
	err = os.Rename(tmpPath, path)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("Writing '%s': %w", path, err)
	}
	return nil
}

// stageFile writes data to a temporary file in path's directory and
// returns its name.
func stageFile(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("Writing '%s': %w", path, err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0644)
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("Writing '%s': %w", path, err)
	}
	return tmpPath, nil
}
