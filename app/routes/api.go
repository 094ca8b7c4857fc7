// Package routes mounts the controllers on the router.
package routes

import (
	"github.com/shashiranjanraj/bazaar/app/controllers"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
	"github.com/shashiranjanraj/bazaar/pkg/router"
)

// Controllers is every controller the API exposes.
type Controllers struct {
	Auth         *controllers.AuthController
	Registration *controllers.RegistrationController
	Products     *controllers.ProductController
	Cart         *controllers.CartController
	Users        *controllers.UserController
}

// Options carries per-route plumbing. OTPLimit guards /api/send-otp and
// may be nil.
type Options struct {
	Wrapper  *appctx.Wrapper
	OTPLimit router.Middleware
}

func RegisterAPI(r *router.Router, c Controllers, opts Options) {
	wrap := opts.Wrapper
	if wrap == nil {
		wrap = appctx.NewWrapper(appctx.Options{})
	}

	r.Post("/login", "auth.login", wrap.Wrap(c.Auth.Login))

	api := r.Group("/api")
	api.Post("/login", "api.auth.login", wrap.Wrap(c.Auth.Login))

	var otpMiddleware []router.Middleware
	if opts.OTPLimit != nil {
		otpMiddleware = append(otpMiddleware, opts.OTPLimit)
	}
	api.Post("/send-otp", "registration.send", wrap.Wrap(c.Registration.SendOTP), otpMiddleware...)
	api.Post("/verify-otp", "registration.verify", wrap.Wrap(c.Registration.VerifyOTP))

	api.Post("/products", "products.store", wrap.Wrap(c.Products.Store))
	api.Get("/products", "products.index", wrap.Wrap(c.Products.Index))
	api.Get("/products/{id}", "products.show", wrap.Wrap(c.Products.Show))
	api.Delete("/products/{id}", "products.destroy", wrap.Wrap(c.Products.Destroy))

	api.Post("/cart", "cart.store", wrap.Wrap(c.Cart.Store))
	api.Get("/cart", "cart.index", wrap.Wrap(c.Cart.Index))
	api.Delete("/cart", "cart.destroy", wrap.Wrap(c.Cart.Destroy))

	api.Delete("/users/deleteByEmail", "users.destroy", wrap.Wrap(c.Users.DeleteByEmail))
	api.Post("/uploadProfileImage", "users.profile_image", wrap.Wrap(c.Users.UploadProfileImage))
}
