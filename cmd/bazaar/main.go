// Command bazaar runs the marketplace API and its maintenance tasks.
//
//	bazaar serve        # start the HTTP server (default)
//	bazaar migrate      # create tables or indexes for DB_DRIVER
//	bazaar route:list   # list API routes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "bazaar",
	Short:        "Marketplace API server",
	SilenceUsage: true,
	RunE:         serveCmd.RunE,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)
	rootCmd.AddCommand(migrateCmd)
}
