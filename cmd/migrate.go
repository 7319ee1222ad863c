package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormkit/ormkit/migrations"
)

var dryRunMigrate bool

func init() {
	migrateCmd.Flags().BoolVar(&dryRunMigrate, "dry-run", false, "List pending migrations without applying them")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		loader := migrations.NewLoader(migrationsDir)
		ms, err := loader.LoadAll()
		if err != nil {
			fmt.Println("❌ Loading migrations failed:", err)
			os.Exit(1)
		}
		if len(ms) == 0 {
			fmt.Println("✅ No migrations found.")
			return
		}

		c, err := openContext()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		defer c.Close()

		ctx := context.Background()

		if dryRunMigrate {
			applied, err := migrations.NewRecorder(c).AppliedSet(ctx)
			if err != nil {
				fmt.Println("❌ Dry run failed:", err)
				os.Exit(1)
			}
			fmt.Println("🕒 Pending migrations:")
			pending := 0
			for _, m := range ms {
				if applied[m.Key()] {
					continue
				}
				pending++
				fmt.Println("   -", m.Key())
				for _, op := range m.Operations {
					fmt.Println("       ", op.Describe())
				}
			}
			if pending == 0 {
				fmt.Println("   (none)")
			}
			return
		}

		ran, err := migrations.Apply(ctx, c, ms)
		if err != nil {
			fmt.Println("❌ Migration failed:", err)
			os.Exit(1)
		}
		if len(ran) == 0 {
			fmt.Println("✅ Nothing to apply, database is up to date.")
			return
		}
		fmt.Printf("✅ Applied %d migration(s).\n", len(ran))
	},
}
