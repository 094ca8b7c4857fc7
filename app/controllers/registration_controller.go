package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/bazaar/app/services"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type RegistrationController struct {
	registration *services.RegistrationService
}

func NewRegistrationController(registration *services.RegistrationService) *RegistrationController {
	return &RegistrationController{registration: registration}
}

type sendOTPRequest struct {
	FullName string `json:"fullname" validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Mobile   string `json:"mobile"   validate:"required"`
	Location string `json:"location" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SendOTP handles POST /api/send-otp.
func (rc *RegistrationController) SendOTP(c *appctx.Context) {
	var req sendOTPRequest
	if !c.BindJSON(&req) {
		return
	}

	err := rc.registration.IssueOTP(c.Context(), services.IssueOTPInput{
		FullName: req.FullName,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Location: req.Location,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err, "Error sending OTP")
		return
	}
	c.Message(http.StatusOK, "OTP sent")
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp"   validate:"required"`
}

// VerifyOTP handles POST /api/verify-otp.
func (rc *RegistrationController) VerifyOTP(c *appctx.Context) {
	var req verifyOTPRequest
	if !c.BindJSON(&req) {
		return
	}

	if err := rc.registration.VerifyOTP(c.Context(), req.Email, req.OTP); err != nil {
		fail(c, err, internalError)
		return
	}
	c.Message(http.StatusOK, "Registration successful")
}
