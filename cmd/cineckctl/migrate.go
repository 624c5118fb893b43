package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kdimtricp/cineck/internal/database"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies the SQL migrations bundled with cineck that have not run yet.
With --status, lists every migration and whether it has been applied.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "show migration status only")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Conn(), db.Type())

	if migrateStatus {
		return printMigrationStatus(cmd, migrator)
	}

	n, err := migrator.Run(database.Migrations())
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", n)
	return nil
}

func printMigrationStatus(cmd *cobra.Command, migrator *database.Migrator) error {
	if err := migrator.Initialize(); err != nil {
		return err
	}
	applied, err := migrator.GetAppliedMigrations()
	if err != nil {
		return err
	}
	migrations, err := migrator.LoadMigrations(database.Migrations())
	if err != nil {
		return err
	}

	t := newTable("VERSION", "NAME", "STATUS")
	for _, m := range migrations {
		status := "pending"
		if applied[m.Version] {
			status = "applied"
		}
		t.Row(m.Version, m.Name, status)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
