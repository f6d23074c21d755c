// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carvel.dev/zsyaml/pkg/cmd/ui"
	"carvel.dev/zsyaml/pkg/version"
	"github.com/k14s/difflib"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `
#Person: {
	name: string
	age?: int & >=0
	tags: [...string]
}
`

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func assertNoDiff(t *testing.T, expected, actual string) {
	if expected != actual {
		diff := difflib.PPDiff(strings.Split(expected, "\n"), strings.Split(actual, "\n"))
		t.Fatalf("Not equal; diff expected...actual:\n%v\n", diff)
	}
}

func newTestCmd(o *ZsYAMLOptions, args ...string) *cobra.Command {
	cmd := NewZsYAMLCmd(o)
	cmd.SetArgs(args)
	return cmd
}

func TestConvertsDocumentToText(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"schema.cue": personSchema,
		"ann.yaml": `_meta:
  schema_module: schema.cue
  schema_type: Person
name: Ann
tags: {_f: repeat_node, _a: {count: 2, node: go}}
`,
	})

	var stdout, stderr bytes.Buffer
	o := NewDefaultZsYAMLOptions()
	o.ui = ui.NewCustomWriterTTY(false, &stdout, &stderr)

	in, out := filepath.Join(dir, "ann.yaml"), filepath.Join(dir, "ann.json")
	require.NoError(t, newTestCmd(o, in, out).Execute())

	bs, err := os.ReadFile(out)
	require.NoError(t, err)
	assertNoDiff(t, "{\n  \"name\": \"Ann\",\n  \"tags\": [\n    \"go\",\n    \"go\"\n  ]\n}\n", string(bs))
	assert.Empty(t, stderr.String())
}

func TestErrorsAreTaggedWithKind(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"schema.cue": personSchema,
		"ann.yaml": `_meta:
  schema_module: schema.cue
  schema_type: Person
name: Ann
tags: {_f: nope}
`,
		"plain.yaml": "name: Ann\n",
		"a.bin":      "",
	})

	cases := []struct {
		desc   string
		in     string
		out    string
		prefix string
	}{
		{"unknown function", "ann.yaml", "ann.bin", "unknown function: "},
		{"missing metadata", "plain.yaml", "plain.bin", "metadata: "},
		{"missing input", "missing.yaml", "missing.bin", "file: "},
		{"unsupported", "a.bin", "b.json", "usage: "},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			o := NewDefaultZsYAMLOptions()
			o.ui = ui.NewCustomWriterTTY(false, &bytes.Buffer{}, &bytes.Buffer{})

			err := newTestCmd(o, filepath.Join(dir, tc.in), filepath.Join(dir, tc.out)).Execute()
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), tc.prefix), "error was: %s", err)

			_, statErr := os.Stat(filepath.Join(dir, tc.out))
			assert.True(t, os.IsNotExist(statErr), "expected no output file")
		})
	}
}

func TestRequiresTwoArgs(t *testing.T) {
	err := newTestCmd(NewDefaultZsYAMLOptions(), "only-one.yaml").Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestVersion(t *testing.T) {
	var stdout bytes.Buffer
	o := NewVersionOptions()
	o.ui = ui.NewCustomWriterTTY(false, &stdout, nil)

	require.NoError(t, o.Run())
	assert.Equal(t, "zs-yaml version "+version.Version+"\n", stdout.String())
}

func TestVersionRejectsExtraArgs(t *testing.T) {
	err := newTestCmd(NewDefaultZsYAMLOptions(), "version", "extra").Execute()
	require.Error(t, err)
}

func TestFmtPutsMetadataFirst(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ann.json": `{"name": "Ann", "age": 70, "_meta": {"schema_module": "schema.cue", "schema_type": "Person"}}`,
		"bob.toml": "name = \"Bob\"\n",
	})

	var stdout bytes.Buffer
	o := NewFmtOptions()
	o.Files = []string{filepath.Join(dir, "ann.json"), filepath.Join(dir, "bob.toml")}
	o.ui = ui.NewCustomWriterTTY(false, &stdout, nil)

	require.NoError(t, o.Run())

	expected := `_meta:
  schema_module: schema.cue
  schema_type: Person
name: Ann
age: 70
---
name: Bob
`
	assertNoDiff(t, expected, stdout.String())
}
