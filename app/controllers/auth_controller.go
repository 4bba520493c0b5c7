// Package controllers maps HTTP requests onto services. Controllers do
// decoding, principal extraction, and response shaping only.
package controllers

import (
	"net/http"
	"strings"

	"github.com/mealgrid/mealgrid/app/services"
	"github.com/mealgrid/mealgrid/pkg/bind"
	"github.com/mealgrid/mealgrid/pkg/response"
	"github.com/mealgrid/mealgrid/pkg/session"
)

// AuthController serves signup, login, and logout for one principal
// kind. It is instantiated twice: once for users, once for admins.
type AuthController struct {
	service    *services.AuthService
	kind       string // "User" or "Admin", used in messages and payload keys
	cookieOpts session.Options
}

func NewAuthController(service *services.AuthService, kind string, cookieOpts session.Options) *AuthController {
	return &AuthController{service: service, kind: kind, cookieOpts: cookieOpts}
}

func (c *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := c.service.Signup(r.Context(), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.CreatedMessage(w, c.kind+" signup successfully", map[string]any{
		strings.ToLower(c.kind): p,
	})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, token, err := c.service.Login(r.Context(), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	session.SetToken(w, token, c.cookieOpts)
	response.SuccessMessage(w, c.kind+" login successfully", map[string]any{
		strings.ToLower(c.kind): p,
		"token":                 token,
	})
}

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if session.Token(r) == "" {
		response.Error(w, http.StatusUnauthorized, "You are not logged in")
		return
	}
	session.ClearToken(w, c.cookieOpts)
	response.SuccessMessage(w, c.kind+" logout successfully", nil)
}
