// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package convert_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"carvel.dev/zsyaml/pkg/backend/cueschema"
	"carvel.dev/zsyaml/pkg/cmd/ui"
	"carvel.dev/zsyaml/pkg/convert"
	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/document"
	"carvel.dev/zsyaml/pkg/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schema = `
#Person: {
	name: string
	age:  int & >=0 & <=4294967295
}

#Member: {
	name:   string
	skills: [...string]
}

#Team: {
	name:    string
	members: [...#Member]
	leader?: bytes
}
`

const funcs = `
def calculate_age(birthdate):
    parts = birthdate.split("-")
    today = clock.today()
    age = today.year - int(parts[0])
    if (today.month, today.day) < (int(parts[1]), int(parts[2])):
        age -= 1
    return age

def skills_of(role):
    return {"lead": ["planning", "review"], "dev": ["go"]}[role]
`

const personMeta = `_meta:
  schema_module: schema.cue
  schema_type: '#Person'
  transformation_module: funcs.star
`

type fixture struct {
	t     *testing.T
	dir   string
	debug *bytes.Buffer
	conv  convert.Converter
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	debug := &bytes.Buffer{}
	f := &fixture{
		t:     t,
		dir:   dir,
		debug: debug,
		conv: convert.Converter{
			Backend: cueschema.New(),
			UI:      ui.NewCustomWriterTTY(true, &bytes.Buffer{}, debug),
			Now:     func() time.Time { return time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC) },
		},
	}
	f.write("schema.cue", schema)
	f.write("funcs.star", funcs)
	return f
}

func (f *fixture) path(name string) string { return filepath.Join(f.dir, name) }

func (f *fixture) write(name, content string) string {
	require.NoError(f.t, os.WriteFile(f.path(name), []byte(content), 0600))
	return f.path(name)
}

func (f *fixture) read(name string) string {
	bs, err := os.ReadFile(f.path(name))
	require.NoError(f.t, err)
	return string(bs)
}

func (f *fixture) assertMissing(name string) {
	_, err := os.Stat(f.path(name))
	assert.True(f.t, errors.Is(err, fs.ErrNotExist), "expected %s to not exist", name)
}

func TestCalculateAgeEndToEnd(t *testing.T) {
	f := newFixture(t)
	in := f.write("ann.yaml", personMeta+`name: Ann
age:
  _f: calculate_age
  _a: "1990-05-15"
`)

	require.NoError(t, f.conv.DocumentToBinary(in, f.path("ann.bin")))
	assert.Equal(t, "\x03Ann\x46", f.read("ann.bin"))

	require.NoError(t, f.conv.DocumentToText(in, f.path("ann.json")))
	assert.Equal(t, "{\n  \"name\": \"Ann\",\n  \"age\": 35\n}\n", f.read("ann.json"))

	assert.Contains(t, f.debug.String(), "call: calculate_age")
}

func TestBinaryRoundTripRestoresResolvedTree(t *testing.T) {
	f := newFixture(t)
	in := f.write("ann.yaml", personMeta+"name: Ann\nage: {_f: calculate_age, _a: '1990-05-15'}\n")
	require.NoError(t, f.conv.DocumentToBinary(in, f.path("ann.bin")))

	target := f.write("back.yaml", personMeta+"name: placeholder\n")
	require.NoError(t, f.conv.BinaryToDocument(f.path("ann.bin"), target))

	assert.Equal(t, personMeta+"name: Ann\nage: 35\n", f.read("back.yaml"))

	// and the restored document encodes to the same bytes
	require.NoError(t, f.conv.DocumentToBinary(target, f.path("again.bin")))
	assert.Equal(t, f.read("ann.bin"), f.read("again.bin"))
}

func TestTextRoundTrip(t *testing.T) {
	f := newFixture(t)
	in := f.write("team.yaml", `_meta:
  schema_module: schema.cue
  schema_type: '#Team'
  transformation_module: funcs.star
name: core
members:
- name: Ann
  skills: {_f: skills_of, _a: lead}
- name: Bob
  skills: {_f: skills_of, _a: dev}
`)
	require.NoError(t, f.conv.Convert(in, f.path("team.json")))

	target := f.write("restored.yaml", "_meta:\n  schema_module: schema.cue\n  schema_type: '#Team'\n")
	require.NoError(t, f.conv.Convert(f.path("team.json"), target))

	assert.Equal(t, `_meta:
  schema_module: schema.cue
  schema_type: '#Team'
name: core
members:
  - name: Ann
    skills:
      - planning
      - review
  - name: Bob
    skills:
      - go
`, f.read("restored.yaml"))
}

func TestUnknownFunctionFailsWithPathAndNoOutput(t *testing.T) {
	f := newFixture(t)
	in := f.write("team.yaml", `_meta:
  schema_module: schema.cue
  schema_type: '#Team'
name: core
members:
- name: Ann
  skills: {_f: no_such_function, _a: 1}
`)

	err := f.conv.DocumentToBinary(in, f.path("team.bin"))
	require.Error(t, err)

	var unknownErr *directive.UnknownFunctionError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "no_such_function", unknownErr.Name)

	var resolveErr *directive.ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, "members[0].skills", resolveErr.Path)

	f.assertMissing("team.bin")
}

func TestFieldOrderMustFollowSchema(t *testing.T) {
	f := newFixture(t)
	in := f.write("ann.yaml", personMeta+"age: 35\nname: Ann\n")

	err := f.conv.DocumentToBinary(in, f.path("ann.bin"))
	var orderErr *convert.SchemaOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, "name", orderErr.Key)
	assert.Equal(t, "age", orderErr.Previous)
	assert.Equal(t, "Expected field 'name' to come before 'age' in '(root)' (schema order: name, age)", err.Error())

	f.assertMissing("ann.bin")
}

func TestMetadataIsRequired(t *testing.T) {
	f := newFixture(t)
	in := f.write("plain.yaml", "name: Ann\n")

	err := f.conv.DocumentToBinary(in, f.path("plain.bin"))
	var metaErr *document.MetadataError
	require.ErrorAs(t, err, &metaErr)
	f.assertMissing("plain.bin")

	// resolving to a document does not need a schema
	require.NoError(t, f.conv.Convert(in, f.path("out.yaml")))
	assert.Equal(t, "name: Ann\n", f.read("out.yaml"))

	err = f.conv.BinaryToDocument(f.path("missing.bin"), f.path("nope.yaml"))
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestExtractExternRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.write("leader.yaml", "_meta:\n  schema_module: schema.cue\n  schema_type: '#Member'\nname: Ann\nskills: [go]\n")
	in := f.write("team.yaml", `_meta:
  schema_module: schema.cue
  schema_type: '#Team'
name: core
members: []
leader:
  _f: insert_yaml_as_extern
  _a: {file: leader.yaml}
`)
	require.NoError(t, f.conv.DocumentToBinary(in, f.path("team.bin")))

	target := f.write("edit.yaml", `_meta:
  schema_module: schema.cue
  schema_type: '#Team'
leader:
  _f: extract_extern_as_yaml
  _a: {source_path: leader, out_file: parts/leader.yaml, schema_type: '#Member'}
`)
	require.NoError(t, os.Mkdir(f.path("parts"), 0700))
	require.NoError(t, f.conv.BinaryToDocument(f.path("team.bin"), target))

	assert.Equal(t, `_meta:
  schema_module: schema.cue
  schema_type: '#Team'
name: core
members: []
leader:
  _f: insert_yaml_as_extern
  _a:
    file: parts/leader.yaml
    schema_type: '#Member'
`, f.read("edit.yaml"))

	assert.Equal(t, "_meta:\n  schema_module: ../schema.cue\n  schema_type: '#Member'\nname: Ann\nskills:\n  - go\n", f.read("parts/leader.yaml"))

	require.NoError(t, f.conv.DocumentToBinary(target, f.path("again.bin")))
	assert.Equal(t, f.read("team.bin"), f.read("again.bin"))
}

func TestFailedExtractionWritesNoFiles(t *testing.T) {
	f := newFixture(t)
	f.write("leader.yaml", "_meta:\n  schema_module: schema.cue\n  schema_type: '#Member'\nname: Ann\nskills: [go]\n")
	in := f.write("team.yaml", `_meta:
  schema_module: schema.cue
  schema_type: '#Team'
name: core
members: []
leader:
  _f: insert_yaml_as_extern
  _a: {file: leader.yaml}
`)
	require.NoError(t, f.conv.DocumentToBinary(in, f.path("team.bin")))

	targetContent := `_meta:
  schema_module: schema.cue
  schema_type: '#Team'
leader:
  _f: extract_extern_as_yaml
  _a: {source_path: leader, out_file: parts/leader.yaml, schema_type: '#Member'}
other:
  _f: extract_extern_as_yaml
  _a: {source_path: nosuch, out_file: parts/other.yaml, schema_type: '#Member'}
`
	target := f.write("edit.yaml", targetContent)
	require.NoError(t, os.Mkdir(f.path("parts"), 0700))

	err := f.conv.BinaryToDocument(f.path("team.bin"), target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nosuch")

	f.assertMissing("parts/leader.yaml")
	f.assertMissing("parts/other.yaml")
	assert.Equal(t, targetContent, f.read("edit.yaml"))

	entries, err := os.ReadDir(f.path("parts"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertRejectsUnsupportedDirections(t *testing.T) {
	f := newFixture(t)
	err := f.conv.Convert(f.path("a.bin"), f.path("b.json"))
	var unsupportedErr *convert.UnsupportedConversionError
	require.ErrorAs(t, err, &unsupportedErr)
}

func TestResolvedTreeKeepsKeyOrder(t *testing.T) {
	f := newFixture(t)
	in := f.write("doc.yaml", "z: 1\na: {_f: repeat_node, _a: {count: 2, node: {y: 1, b: 2}}}\nm: 3\n")
	require.NoError(t, f.conv.DocumentToDocument(in, f.path("out.yaml")))

	tree, err := document.ParseYAML([]byte(f.read("out.yaml")))
	require.NoError(t, err)
	m := tree.(*orderedmap.Map)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())
	items, _ := m.Get("a")
	assert.Equal(t, []string{"y", "b"}, items.([]interface{})[1].(*orderedmap.Map).Keys())
}
