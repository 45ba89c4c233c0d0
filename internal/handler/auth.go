package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/logger"
	"carpool/internal/middleware"
	"carpool/internal/model"
	"carpool/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
	jwt  *middleware.JWT
}

func NewAuthHandler(auth *service.AuthService, jwt *middleware.JWT) *AuthHandler {
	return &AuthHandler{auth: auth, jwt: jwt}
}

// POST /api/login  body: {"username":"...","password":"..."}
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	u, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			logger.Warn("login.failed", "username", req.Username)
		}
		writeError(c, err)
		return
	}

	token, err := h.jwt.Issue(u)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("login.ok", "uid", u.ID, "name", u.Username)
	c.JSON(http.StatusOK, model.LoginResponse{Token: token, User: *u})
}

// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.auth.Me(c.Request.Context(), middleware.UserName(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/account/password  body: {"password":"...","confirm_password":"..."}
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	user := middleware.UserName(c)
	if err := h.auth.ChangePassword(c.Request.Context(), user, req.Password, req.ConfirmPassword); err != nil {
		writeError(c, err)
		return
	}
	logger.Info("account.password_changed", "name", user)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
