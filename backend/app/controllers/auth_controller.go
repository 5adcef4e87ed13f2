package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"compliance-feed/backend/app/dto"
	"compliance-feed/backend/app/middleware"
	"compliance-feed/backend/app/services"
	"compliance-feed/backend/global"
)

type AuthController struct {
	Users *services.UserService
	Auth  *middleware.Auth
}

func NewAuthController(users *services.UserService, auth *middleware.Auth) *AuthController {
	return &AuthController{Users: users, Auth: auth}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "missing credentials"})
		return
	}
	u, err := c.Users.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			global.Logger.Error().Err(err).Msg("login lookup failed")
		}
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		return
	}
	token, err := c.Auth.Signer.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "token error"})
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   c.Auth.Signer.ExpMin * 60,
		Role:        u.Role,
		Trusted:     c.Auth.Trusted(u.Role),
	})
}
