package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormkit/ormkit/fields"
)

func TestNewInjectsPrimaryKey(t *testing.T) {
	s, err := New("products", fields.Char("name", 50))
	require.NoError(t, err)

	assert.Equal(t, "id", s.PK)
	assert.Equal(t, "id", s.Fields()[0].Name())
	assert.True(t, s.PKField().Options().PrimaryKey)
}

func TestNewDeclaredPrimaryKey(t *testing.T) {
	s, err := New("products",
		fields.UUID("token", fields.PrimaryKey()),
		fields.Char("name", 50),
	)
	require.NoError(t, err)
	assert.Equal(t, "token", s.PK)
	assert.Len(t, s.Fields(), 2)
}

func TestNewRejectsMultiplePrimaryKeys(t *testing.T) {
	_, err := New("products",
		fields.Integer("a", fields.PrimaryKey()),
		fields.Integer("b", fields.PrimaryKey()),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple primary keys")
}

func TestNewRejectsDuplicateFields(t *testing.T) {
	_, err := New("products",
		fields.Char("name", 50),
		fields.Text("name"),
	)
	require.Error(t, err)
}

func TestNewRejectsNullablePrimaryKey(t *testing.T) {
	_, err := New("products", fields.Integer("id", fields.PrimaryKey(), fields.Null()))
	require.Error(t, err)
}

func TestLedgerTableNameReserved(t *testing.T) {
	_, err := New(LedgerTable, fields.Char("name", 50))
	require.Error(t, err)
}

func TestForeignKeyRelation(t *testing.T) {
	s, err := New("reviews",
		fields.ForeignKey("product", "products", fields.Cascade),
	)
	require.NoError(t, err)

	require.Len(t, s.Relations, 1)
	rel := s.Relations[0]
	assert.Equal(t, ForeignKey, rel.Kind)
	assert.Equal(t, "products", rel.Target)
	assert.Equal(t, fields.Cascade, rel.OnDelete)
}

func TestManyToManyRelationAutoJoinTable(t *testing.T) {
	s, err := New("products", fields.ManyToMany("tags", "tags"))
	require.NoError(t, err)

	require.Len(t, s.Relations, 1)
	assert.Equal(t, ManyToMany, s.Relations[0].Kind)
	assert.Equal(t, "products_tags", s.Relations[0].JoinTable)

	// the m2m field carries no column
	names := make([]string, 0)
	for _, f := range s.ColumnFields() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"id"}, names)
}

func TestManyToManyThrough(t *testing.T) {
	s, err := New("products", fields.ManyToMany("tags", "tags").Through("taggings"))
	require.NoError(t, err)
	assert.Equal(t, "taggings", s.Relations[0].JoinTable)
}

func TestValidateAllUnknownTarget(t *testing.T) {
	reviews := MustNew("reviews", fields.ForeignKey("product", "products", fields.Cascade))
	err := ValidateAll([]*Schema{reviews})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")

	products := MustNew("products", fields.Char("name", 50))
	require.NoError(t, ValidateAll([]*Schema{products, reviews}))
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `
tables:
  - name: products
    columns:
      - name: name
        type: varchar(50)
        index: true
      - name: price
        type: decimal(10,2)
      - name: in_stock
        type: boolean
        default: true
      - name: created_at
        type: datetime
        auto_now_add: true
  - name: reviews
    columns:
      - name: product
        type: integer
        references:
          table: products
          on_delete: CASCADE
      - name: body
        type: text
        null: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	schemas, err := LoadYAML(path)
	require.NoError(t, err)
	require.Len(t, schemas, 2)

	products := schemas[0]
	assert.Equal(t, "products", products.Table)
	assert.Equal(t, "id", products.PK)

	name, ok := products.Field("name")
	require.True(t, ok)
	assert.Equal(t, "VARCHAR(50)", name.StorageType())
	assert.True(t, name.Options().Index)

	price, ok := products.Field("price")
	require.True(t, ok)
	assert.Equal(t, "NUMERIC(10,2)", price.StorageType())

	stock, ok := products.Field("in_stock")
	require.True(t, ok)
	assert.True(t, stock.Options().HasDefault)

	created, ok := products.Field("created_at")
	require.True(t, ok)
	assert.True(t, created.(*fields.DateTimeField).IsAutoNowAdd())

	reviews := schemas[1]
	require.Len(t, reviews.Relations, 1)
	assert.Equal(t, "products", reviews.Relations[0].Target)
}

func TestLoadYAMLUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `
tables:
  - name: products
    columns:
      - name: name
        type: varchar2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadYAML(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestLoadYAMLUnknownReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `
tables:
  - name: reviews
    columns:
      - name: product
        type: integer
        references:
          table: products
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadYAML(path)
	require.Error(t, err)
}
