package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeedFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "items.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
- name: iPhone 12 Screen
  category: Screen
  model: "12"
  price: 850000
  stock: 4
- name: iPhone 11 Battery
  currentStock: 2
`), 0o600))

	items, err := readSeedFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "iPhone 12 Screen", items[0].Name)
	assert.Equal(t, "12", items[0].Model)
	assert.Equal(t, 850000.0, items[0].Price)
	require.NotNil(t, items[0].Stock)
	assert.Equal(t, int64(4), *items[0].Stock)
	assert.Nil(t, items[1].Stock)
	require.NotNil(t, items[1].CurrentStock)
	assert.Equal(t, int64(2), *items[1].CurrentStock)

	jsonPath := filepath.Join(dir, "items.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name":"Back Glass","stock":1}]`), 0o600))
	items, err = readSeedFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Back Glass", items[0].Name)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"name":"not a list"}`), 0o600))
	_, err = readSeedFile(badPath)
	assert.Error(t, err)
}
