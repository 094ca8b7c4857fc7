package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/internal/bootstrap"
)

// bazaar migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables (SQL drivers) or indexes (mongo)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := bootstrap.Migrate(cmd.Context(), cfg); err != nil {
			return err
		}
		fmt.Printf("Schema ready for %s.\n", cfg.DBDriver)
		return nil
	},
}
