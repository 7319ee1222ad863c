package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := &Migration{
		App:          "shop",
		Name:         "0001_initial",
		Dependencies: []string{"crm/0001_initial"},
		Operations: []Operation{
			widgetsTable(),
			CreateIndex{Table: "widgets", Columns: []string{"name"}, Unique: true},
		},
	}
	path, err := WriteMigration(dir, m)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shop", "0001_initial.yaml"), path)

	loaded, err := NewLoader(dir).Load("shop")
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, "shop/0001_initial", got.Key())
	assert.Equal(t, []string{"crm/0001_initial"}, got.Dependencies)
	require.Len(t, got.Operations, 2)

	ct, ok := got.Operations[0].(*CreateTable)
	require.True(t, ok)
	assert.Equal(t, "widgets", ct.Table)
	require.Len(t, ct.Columns, 3)
	assert.True(t, ct.Columns[0].PrimaryKey)
	assert.Equal(t, "NUMERIC(10,2)", ct.Columns[2].Type)

	ci, ok := got.Operations[1].(*CreateIndex)
	require.True(t, ok)
	assert.True(t, ci.Unique)
	assert.Equal(t, []string{"name"}, ci.Columns)
}

func TestLoadOrdersFilesLexicographically(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"0002_add_notes", "0001_initial", "0010_late"} {
		_, err := WriteMigration(dir, &Migration{
			App:        "shop",
			Name:       name,
			Operations: []Operation{DropTable{Table: "x"}},
		})
		require.NoError(t, err)
	}

	ms, err := NewLoader(dir).Load("shop")
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, "0001_initial", ms[0].Name)
	assert.Equal(t, "0002_add_notes", ms[1].Name)
	assert.Equal(t, "0010_late", ms[2].Name)
}

func TestLoadDefaultsAppAndNameFromPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shop"), 0o755))

	raw := []byte(`operations:
  - drop_table:
      table: widgets
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop", "0001_cleanup.yaml"), raw, 0o644))

	ms, err := NewLoader(dir).Load("shop")
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "shop", ms[0].App)
	assert.Equal(t, "0001_cleanup", ms[0].Name)

	dt, ok := ms[0].Operations[0].(*DropTable)
	require.True(t, ok)
	assert.Equal(t, "widgets", dt.Table)
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shop"), 0o755))

	raw := []byte(`operations:
  - rename_table:
      table: widgets
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop", "0001_bad.yaml"), raw, 0o644))

	_, err := NewLoader(dir).Load("shop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename_table")
}

func TestLoadAllWalksAppsInOrder(t *testing.T) {
	dir := t.TempDir()

	for _, app := range []string{"shop", "crm"} {
		_, err := WriteMigration(dir, &Migration{
			App:        app,
			Name:       "0001_initial",
			Operations: []Operation{DropTable{Table: "x"}},
		})
		require.NoError(t, err)
	}

	ms, err := NewLoader(dir).LoadAll()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "crm/0001_initial", ms[0].Key())
	assert.Equal(t, "shop/0001_initial", ms[1].Key())

	apps, err := NewLoader(dir).Apps()
	require.NoError(t, err)
	assert.Equal(t, []string{"crm", "shop"}, apps)
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	ms, err := NewLoader(filepath.Join(t.TempDir(), "nope")).LoadAll()
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestNextName(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "0001_initial", NextName(dir, "shop", "initial"))

	_, err := WriteMigration(dir, &Migration{
		App:        "shop",
		Name:       "0001_initial",
		Operations: []Operation{DropTable{Table: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "0002_add_notes", NextName(dir, "shop", "add_notes"))
}
