package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"migchat/internal/repository"
	"migchat/internal/service"
)

// AccountHandler mantiene dependencias para endpoints de cuentas.
type AccountHandler struct {
	logger      *zap.Logger
	accountServ *service.AccountService
}

// NewAccountHandler crea una instancia de AccountHandler con dependencias necesarias.
func NewAccountHandler(logger *zap.Logger, accountServ *service.AccountService) *AccountHandler {
	return &AccountHandler{
		logger:      logger,
		accountServ: accountServ,
	}
}

// CreateAccount maneja POST /api/account/create.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create account request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, session, err := h.accountServ.Create(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyUsername), errors.Is(err, service.ErrEmptyPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		default:
			h.logger.Error("create account failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    session.Token,
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// Login maneja POST /api/account/login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, session, err := h.accountServ.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    session.Token,
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// Logout maneja POST /api/account/logout.
func (h *AccountHandler) Logout(c *gin.Context) {
	token := GetBearerToken(c)
	if err := h.accountServ.Logout(c.Request.Context(), token); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not logout"})
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateUsername maneja PUT /api/account/username.
func (h *AccountHandler) UpdateUsername(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req struct {
		NewUsername string `json:"new_username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update username request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.accountServ.UpdateUsername(c.Request.Context(), userID, req.NewUsername)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		default:
			h.logger.Error("update username failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update username"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":   user.Username,
		"updated_at": time.Now().UTC(),
	})
}
