package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormkit/ormkit/database"
	"github.com/ormkit/ormkit/schema"
)

var (
	schemaFile    string
	migrationsDir string
)

var rootCmd = &cobra.Command{
	Use:   "ormkit",
	Short: "A Django-style ORM and migration toolkit for Go",
	Long: `ormkit manages your database schema from declarative definitions.

Examples:

  ormkit init
  ormkit makemigrations
  ormkit migrate
  ormkit status
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", "schema.yaml", "Path to the schema definition file")
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "Path to the migrations directory")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(makemigrationsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(statusCmd)
}

func openContext() (*database.Context, error) {
	c, err := database.OpenFromEnv()
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return c, nil
}

func loadSchemas() ([]*schema.Schema, error) {
	return schema.LoadYAML(schemaFile)
}
