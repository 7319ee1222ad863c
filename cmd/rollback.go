package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormkit/ormkit/migrations"
)

var steps int

func init() {
	rollbackCmd.Flags().IntVarP(&steps, "steps", "s", 1, "Number of migrations to rollback")
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback migrations",
	Long: `Rollback the last migration or multiple migrations.

Examples:
  ormkit rollback            # Rollback the last migration
  ormkit rollback --steps=3  # Rollback the last 3 migrations
`,
	Run: func(cmd *cobra.Command, args []string) {
		if steps < 1 {
			fmt.Println("❌ Steps must be at least 1")
			os.Exit(1)
		}

		loader := migrations.NewLoader(migrationsDir)
		ms, err := loader.LoadAll()
		if err != nil {
			fmt.Println("❌ Loading migrations failed:", err)
			os.Exit(1)
		}
		byKey := make(map[string]*migrations.Migration, len(ms))
		for _, m := range ms {
			byKey[m.Key()] = m
		}

		c, err := openContext()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		defer c.Close()

		ctx := context.Background()
		records, err := migrations.NewRecorder(c).Applied(ctx)
		if err != nil {
			fmt.Println("❌ Rollback failed:", err)
			os.Exit(1)
		}

		rolled := 0
		for i := len(records) - 1; i >= 0 && rolled < steps; i-- {
			key := records[i].App + "/" + records[i].Name
			m, ok := byKey[key]
			if !ok {
				fmt.Printf("❌ Applied migration %s has no file in %s\n", key, migrationsDir)
				os.Exit(1)
			}
			if _, err := migrations.Unapply(ctx, c, []*migrations.Migration{m}); err != nil {
				fmt.Println("❌ Rollback failed:", err)
				os.Exit(1)
			}
			rolled++
		}

		if rolled == 0 {
			fmt.Println("✅ Nothing to rollback.")
			return
		}
		if rolled == 1 {
			fmt.Println("✅ Rolled back 1 migration.")
		} else {
			fmt.Printf("✅ Rolled back %d migrations.\n", rolled)
		}
	},
}
