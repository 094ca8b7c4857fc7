package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/bazaar/app/routes"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/internal/bootstrap"
	"github.com/shashiranjanraj/bazaar/internal/kernel"
	"github.com/shashiranjanraj/bazaar/internal/server"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/router"
)

// bazaar serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		app, err := bootstrap.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				logger.Error("shutdown: closing backends", "error", err)
			}
		}()

		app.StartBackground(ctx)
		return server.Start(ctx, cfg.AppPort, app.Kernel.Handler())
	},
}

// bazaar route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		k := kernel.NewHTTPKernel(kernel.Options{Routes: func(r *router.Router) {
			routes.RegisterAPI(r, routes.Controllers{}, routes.Options{})
		}})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range k.Router().Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
