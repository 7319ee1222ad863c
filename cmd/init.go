package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new ormkit project",
	Long: `Initialize a new ormkit project with a YAML schema file and a
migrations directory.

Examples:
  ormkit init
  ormkit init --schema db/schema.yaml --dir db/migrations`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(schemaFile); err == nil {
			fmt.Printf("❌ %s already exists!\n", schemaFile)
			return
		}

		content := `# Declarative schema definition. Each table becomes a model schema; a
# primary key column named "id" is injected when none is declared.
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
      - name: updated_at
        type: datetime
        auto_now: true

  - name: reviews
    columns:
      - name: product
        type: integer
        references:
          table: products
          on_delete: CASCADE
      - name: rating
        type: smallint
      - name: body
        type: text
        null: true
`
		if err := os.WriteFile(schemaFile, []byte(content), 0o644); err != nil {
			fmt.Printf("❌ Error creating %s: %v\n", schemaFile, err)
			return
		}
		if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
			fmt.Printf("❌ Error creating %s: %v\n", migrationsDir, err)
			return
		}

		fmt.Printf("✅ Created %s example file.\n", schemaFile)
		fmt.Printf("📁 Created %s directory.\n", migrationsDir)
		fmt.Printf("📝 Edit %s to define your database schema\n", schemaFile)
		fmt.Println("🚀 Run 'ormkit makemigrations' to author migrations from your schema")
	},
}
