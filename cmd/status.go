package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ormkit/ormkit/migrations"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		loader := migrations.NewLoader(migrationsDir)
		ms, err := loader.LoadAll()
		if err != nil {
			fmt.Println("❌ Loading migrations failed:", err)
			os.Exit(1)
		}

		c, err := openContext()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		defer c.Close()

		applied, err := migrations.NewRecorder(c).AppliedSet(context.Background())
		if err != nil {
			fmt.Println("❌ Status error:", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen)
		yellow := color.New(color.FgYellow)

		fmt.Println("✅ Applied migrations:")
		for _, m := range ms {
			if applied[m.Key()] {
				green.Printf("   - %s\n", m.Key())
			}
		}

		fmt.Println("\n🕒 Pending migrations:")
		pending := 0
		for _, m := range ms {
			if !applied[m.Key()] {
				yellow.Printf("   - %s\n", m.Key())
				pending++
			}
		}
		if pending == 0 {
			fmt.Println("   (none)")
		}
	},
}
