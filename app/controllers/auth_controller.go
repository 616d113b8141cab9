package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/diner/app/services"
	"github.com/shashiranjanraj/diner/pkg/auth"
	"github.com/shashiranjanraj/diner/pkg/response"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Register handles POST /v1/auth/register.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !decode(w, r, &in) {
		return
	}

	user, err := c.service.Register(r.Context(), in)
	if err != nil {
		fail(w, r, err, "Error registering user")
		return
	}

	response.Created(w, map[string]interface{}{
		"id":      user.ID,
		"message": "User registered successfully",
	})
}

// Login handles POST /v1/auth/login.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if !decode(w, r, &in) {
		return
	}

	res, err := c.service.Login(r.Context(), in)
	if err != nil {
		fail(w, r, err, "Error logging in")
		return
	}
	response.Success(w, res)
}

// Profile handles GET /v1/users/profile.
func (c *AuthController) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Access token required")
		return
	}

	profile, err := c.service.Profile(r.Context(), id.UserID)
	if err != nil {
		fail(w, r, err, "Error fetching user profile")
		return
	}
	response.Success(w, profile)
}
