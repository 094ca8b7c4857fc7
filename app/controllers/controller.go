// Package controllers adapts HTTP requests to service calls.
package controllers

import (
	"github.com/shashiranjanraj/bazaar/app/services"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
)

const internalError = "Internal Server Error"

// fail writes err in the error envelope. Dependency failures are logged
// with the request logger and answered with fallback.
func fail(c *appctx.Context, err error, fallback string) {
	if services.KindOf(err) == services.KindDependency {
		c.Log().Error("request failed", "method", c.R.Method, "path", c.R.URL.Path, "error", err)
	}
	status, msg := services.Public(err, fallback)
	c.Error(status, msg)
}
