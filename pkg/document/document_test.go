// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"carvel.dev/zsyaml/pkg/document"
	"carvel.dev/zsyaml/pkg/orderedmap"
	"github.com/stretchr/testify/require"
)

func TestParseYAMLSplitsMetadata(t *testing.T) {
	src := `_meta:
  schema_module: team.cue
  schema_type: Team
  transformation_module: ./custom.star
  initialization_args: [3, "x"]
name: Ann
age:
  _f: calculate_age
  _a: "1990-05-15"
born: 1990-05-15
zip: 12345
ratio: 0.5
`
	doc, err := document.Parse([]byte(src), document.FormatYAML, "team.yaml")
	require.NoError(t, err)

	require.Equal(t, "team.cue", doc.Meta.SchemaModule)
	require.Equal(t, "Team", doc.Meta.SchemaType)
	require.Equal(t, "./custom.star", doc.Meta.TransformationModule)
	require.Equal(t, []interface{}{int64(3), "x"}, doc.Meta.InitArgs)
	require.NoError(t, doc.Meta.Validate())

	require.Equal(t, []string{"name", "age", "born", "zip", "ratio"}, doc.Data.Keys())
	born, _ := doc.Data.Get("born")
	require.Equal(t, "1990-05-15", born)
	zip, _ := doc.Data.Get("zip")
	require.Equal(t, int64(12345), zip)
	ratio, _ := doc.Data.Get("ratio")
	require.Equal(t, 0.5, ratio)
}

func TestParseRejectsNonMappingRootAndDuplicates(t *testing.T) {
	_, err := document.Parse([]byte("- a\n- b\n"), document.FormatYAML, "list.yaml")
	require.ErrorContains(t, err, "expected root to be a mapping")

	_, err = document.Parse([]byte("a: 1\na: 2\n"), document.FormatYAML, "dup.yaml")
	require.ErrorContains(t, err, "duplicate mapping key 'a'")
}

func TestMetaValidate(t *testing.T) {
	doc, err := document.Parse([]byte("_meta:\n  schema_module: x.cue\nname: a\n"), document.FormatYAML, "a.yaml")
	require.NoError(t, err)

	var metaErr *document.MetadataError
	require.True(t, errors.As(doc.Meta.Validate(), &metaErr))

	doc, err = document.Parse([]byte("name: a\n"), document.FormatYAML, "a.yaml")
	require.NoError(t, err)
	require.Nil(t, doc.Meta)
	require.ErrorContains(t, doc.Meta.Validate(), "expected document to contain a '_meta' block")

	_, err = document.Parse([]byte("_meta:\n  schema_type: [1]\n"), document.FormatYAML, "a.yaml")
	require.ErrorContains(t, err, "expected 'schema_type' to be a string, but was sequence")
}

func TestBytesRoundTripKeepsOrderAndMeta(t *testing.T) {
	src := `_meta:
  schema_type: Team
  schema_module: team.cue
zeta: "123"
alpha:
  - 1
  - 2.5
  - true
  - null
blob: !!binary aGVsbG8=
`
	doc, err := document.Parse([]byte(src), document.FormatYAML, "a.yaml")
	require.NoError(t, err)

	blob, _ := doc.Data.Get("blob")
	require.Equal(t, []byte("hello"), blob)

	bs, err := doc.Bytes()
	require.NoError(t, err)

	reparsed, err := document.Parse(bs, document.FormatYAML, "b.yaml")
	require.NoError(t, err)
	require.True(t, orderedmap.Equal(doc.Data, reparsed.Data), "got:\n%s", bs)
	require.Equal(t, []string{"schema_type", "schema_module"}, reparsed.Meta.Node().Keys())

	zeta, _ := reparsed.Data.Get("zeta")
	require.Equal(t, "123", zeta)
}

func TestMarshalFloatStaysFloat(t *testing.T) {
	m := orderedmap.NewMap()
	m.Set("f", 2.0)
	bs, err := document.MarshalYAML(m)
	require.NoError(t, err)
	require.Equal(t, "f: 2.0\n", string(bs))
}

func TestParseJSON(t *testing.T) {
	doc, err := document.Parse([]byte(`{"b": 1, "a": {"y": [1, "x"], "x": null}}`), document.FormatJSON, "a.json")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, doc.Data.Keys())
	a, _ := doc.Data.Get("a")
	require.Equal(t, []string{"y", "x"}, a.(*orderedmap.Map).Keys())
}

func TestParseTOMLKeepsDocumentOrder(t *testing.T) {
	src := `zeta = 1
alpha = "two"

[server]
port = 8080
host = "localhost"

[[members]]
name = "Ann"
age = 35

[[members]]
name = "Bob"
`
	doc, err := document.Parse([]byte(src), document.FormatTOML, "a.toml")
	require.NoError(t, err)
	require.Equal(t, []string{"zeta", "alpha", "server", "members"}, doc.Data.Keys())

	server, _ := doc.Data.Get("server")
	require.Equal(t, []string{"port", "host"}, server.(*orderedmap.Map).Keys())

	members, _ := doc.Data.Get("members")
	require.Len(t, members, 2)
	first := members.([]interface{})[0].(*orderedmap.Map)
	require.Equal(t, []string{"name", "age"}, first.Keys())
	age, _ := first.Get("age")
	require.Equal(t, int64(35), age)
}

func TestSubstitute(t *testing.T) {
	args := orderedmap.NewMap()
	args.Set("name", "Ann")
	args.Set("count", int64(3))

	result := document.Substitute("$name has ${count} items, costs $$5, keeps $unknown and ${other}", args)
	require.Equal(t, "Ann has 3 items, costs $5, keeps $unknown and ${other}", result)
}

func TestReadFileWithTemplateArgs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("greeting: hello ${who}\n"), 0600))

	args := orderedmap.NewMap()
	args.Set("who", "world")
	doc, err := document.ReadFile(path, document.ReadOpts{TemplateArgs: args})
	require.NoError(t, err)
	greeting, _ := doc.Data.Get("greeting")
	require.Equal(t, "hello world", greeting)

	_, err = document.ReadFile(filepath.Join(dir, "missing.yaml"), document.ReadOpts{})
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	require.NoError(t, document.WriteFileAtomic(path, []byte("one")))
	require.NoError(t, document.WriteFileAtomic(path, []byte("two")))

	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(bs))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	err = document.WriteFileAtomic(filepath.Join(dir, "missing-dir", "out.bin"), []byte("x"))
	require.Error(t, err)
}

func TestReadFragmentAllowsAnyRoot(t *testing.T) {
	dir := t.TempDir()

	seqPath := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(seqPath, []byte("- detailed: {a: 1}\n- b\n"), 0600))
	frag, err := document.ReadFragment(seqPath, document.ReadOpts{})
	require.NoError(t, err)
	require.Nil(t, frag.Meta)
	items, ok := frag.Root.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)

	mapPath := filepath.Join(dir, "member.json")
	require.NoError(t, os.WriteFile(mapPath, []byte(`{"_meta": {"schema_module": "m.cue", "schema_type": "#Member"}, "name": "Ann"}`), 0600))
	frag, err = document.ReadFragment(mapPath, document.ReadOpts{})
	require.NoError(t, err)
	require.Equal(t, "#Member", frag.Meta.SchemaType)
	require.Equal(t, []string{"name"}, frag.Root.(*orderedmap.Map).Keys())
}

func TestBatchWritesNothingWhenStagingFails(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("old: true\n"), 0600))

	newDoc := func(path string) *document.Document {
		data := orderedmap.NewMap()
		data.Set("new", true)
		return &document.Document{Path: path, Data: data}
	}

	batch := &document.Batch{}
	batch.Add(newDoc(existing))
	batch.Add(newDoc(filepath.Join(dir, "b.yaml")))
	batch.Add(newDoc(filepath.Join(dir, "missing-dir", "c.yaml")))

	require.Error(t, batch.WriteFiles())

	bs, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "old: true\n", string(bs))

	_, err = os.Stat(filepath.Join(dir, "b.yaml"))
	require.True(t, errors.Is(err, fs.ErrNotExist))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "expected staged files to be cleaned up")
}

func TestBatchReplacesDocumentsForSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.yaml")

	first := orderedmap.NewMap()
	first.Set("n", int64(1))
	second := orderedmap.NewMap()
	second.Set("n", int64(2))

	batch := &document.Batch{}
	batch.Add(&document.Document{Path: path, Data: first})
	batch.Add(&document.Document{Path: path, Data: second})
	require.Equal(t, []string{path}, batch.Paths())

	require.NoError(t, batch.WriteFiles())

	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "n: 2\n", string(bs))
}
