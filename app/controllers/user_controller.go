package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/bazaar/app/services"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type UserController struct {
	accounts *services.AccountService
}

func NewUserController(accounts *services.AccountService) *UserController {
	return &UserController{accounts: accounts}
}

type deleteByEmailRequest struct {
	Email string `json:"email" validate:"required"`
}

// DeleteByEmail handles DELETE /api/users/deleteByEmail.
func (uc *UserController) DeleteByEmail(c *appctx.Context) {
	var req deleteByEmailRequest
	if !c.BindJSON(&req) {
		return
	}

	if err := uc.accounts.DeleteByEmail(c.Context(), req.Email); err != nil {
		fail(c, err, internalError)
		return
	}
	c.Message(http.StatusOK, "User and related data deleted successfully")
}

// UploadProfileImage handles POST /api/uploadProfileImage (multipart
// fields "email" and "profileImage").
func (uc *UserController) UploadProfileImage(c *appctx.Context) {
	if !c.ParseMultipart() {
		return
	}
	file, header, err := c.FormFile("profileImage")
	if err != nil {
		c.Error(http.StatusBadRequest, "invalid image upload")
		return
	}
	if file == nil {
		fail(c, services.ErrMissingFields, internalError)
		return
	}
	defer file.Close()

	user, err := uc.accounts.UploadProfileImage(c.Context(), c.FormValue("email"), header.Filename, file)
	if err != nil {
		fail(c, err, internalError)
		return
	}

	c.JSON(http.StatusOK, map[string]any{
		"message":  "Image uploaded",
		"imageUrl": user.Image,
		"user":     user.Profile(),
	})
}
