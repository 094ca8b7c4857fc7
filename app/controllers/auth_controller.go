package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/bazaar/app/services"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /login.
func (ac *AuthController) Login(c *appctx.Context) {
	var req loginRequest
	if !c.BindJSON(&req) {
		return
	}

	profile, err := ac.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err, internalError)
		return
	}

	c.JSON(http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    profile,
	})
}
