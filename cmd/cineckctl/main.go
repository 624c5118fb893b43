// Command cineckctl administers a cineck analytics database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/cineck/internal/config"
	"github.com/kdimtricp/cineck/internal/database"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "cineckctl",
	Short:         "Manage the cineck analytics database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CINECK_CONFIG"), "path to a TOML config file")
}

// openDB connects using the same settings the server reads. The TMDb
// settings are not needed here and are not validated.
func openDB() (*database.DB, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.DatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
