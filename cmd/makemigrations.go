package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ormkit/ormkit/migrations"
)

var (
	migrationApp   string
	migrationLabel string
)

func init() {
	makemigrationsCmd.Flags().StringVar(&migrationApp, "app", "main", "App label the migration belongs to")
	makemigrationsCmd.Flags().StringVar(&migrationLabel, "label", "auto", "Descriptive label for the migration name")
}

var makemigrationsCmd = &cobra.Command{
	Use:   "makemigrations",
	Short: "Author a migration from schema changes",
	Long: `Compare the declarative schema against the connected database and
write a migration file for the difference.

Examples:
  ormkit makemigrations
  ormkit makemigrations --app shop --label add_reviews`,
	Run: func(cmd *cobra.Command, args []string) {
		schemas, err := loadSchemas()
		if err != nil {
			fmt.Println("❌ Schema error:", err)
			os.Exit(1)
		}

		c, err := openContext()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		defer c.Close()

		ctx := context.Background()
		ops, err := migrations.Diff(ctx, c, schemas)
		if err != nil {
			fmt.Println("❌ Diff failed:", err)
			os.Exit(1)
		}
		if len(ops) == 0 {
			fmt.Println("✅ No changes detected.")
			return
		}

		green := color.New(color.FgGreen, color.Bold)
		for _, op := range ops {
			green.Printf("  ➕ %s\n", op.Describe())
		}

		m := &migrations.Migration{
			App:        migrationApp,
			Name:       migrations.NextName(migrationsDir, migrationApp, migrationLabel),
			Operations: ops,
		}
		path, err := migrations.WriteMigration(migrationsDir, m)
		if err != nil {
			fmt.Println("❌ Writing migration failed:", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Wrote %s (%d operations)\n", path, len(ops))
		fmt.Println("🚀 Run 'ormkit migrate' to apply it")
	},
}
