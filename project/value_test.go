package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSONDocument(t *testing.T) {
	root, err := Parse([]byte(`{
  "imported_modules": ["std", "fmt"],
  "e": "app",
  "src": {"main.cpp": ["gen.cpp"], "gen.cpp": []}
}`), "build.json")
	require.NoError(t, err)

	assert.True(t, root.Contains("e"))
	assert.False(t, root.Contains("a"))

	e, err := root.Field("e")
	require.NoError(t, err)
	name, err := e.Text()
	require.NoError(t, err)
	assert.Equal(t, "app", name)

	imports, err := root.Field("imported_modules")
	require.NoError(t, err)
	items, err := imports.Array()
	require.NoError(t, err)
	require.Len(t, items, 2)
	first, _ := items[0].Text()
	assert.Equal(t, "std", first)

	src, err := root.Field("src")
	require.NoError(t, err)
	entries, err := src.Map()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "main.cpp", entries[0].Key, "map entries keep document order")
	assert.Equal(t, "gen.cpp", entries[1].Key)
}

func TestParse_YAMLDocumentWithAlias(t *testing.T) {
	root, err := Parse([]byte(`
common: &common [std]
imported_modules: *common
a: core
src: [core.cppm]
`), "build.yaml")
	require.NoError(t, err)

	imports, err := root.Field("imported_modules")
	require.NoError(t, err)
	assert.True(t, imports.IsArray())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(""), "empty.json")
	assert.Error(t, err)

	_, err = Parse([]byte("[1, 2]"), "list.json")
	assert.Error(t, err)

	_, err = Parse([]byte("{unclosed"), "broken.json")
	assert.Error(t, err)
}

func TestValue_TypeMismatchesReportPath(t *testing.T) {
	root, err := Parse([]byte(`{"src": "main.cpp", "n": null}`), "build.json")
	require.NoError(t, err)

	src, err := root.Field("src")
	require.NoError(t, err)
	_, err = src.Array()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.src")

	_, err = root.Field("missing")
	assert.Error(t, err)

	n, err := root.Field("n")
	require.NoError(t, err)
	_, err = n.Text()
	assert.Error(t, err)

	_, err = root.Text()
	assert.Error(t, err)
	assert.False(t, src.Contains("x"))
}
