package http

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"migchat/internal/domain"
	"migchat/internal/repository"
)

const prekeyFetchLimit = 10

// KeyHandler mantiene dependencias para la distribución de claves de cifrado
// extremo a extremo.
type KeyHandler struct {
	logger *zap.Logger
	keys   repository.KeyRepository
	users  repository.UserRepository
}

// NewKeyHandler crea una instancia de KeyHandler con dependencias necesarias.
func NewKeyHandler(logger *zap.Logger, keys repository.KeyRepository, users repository.UserRepository) *KeyHandler {
	return &KeyHandler{
		logger: logger,
		keys:   keys,
		users:  users,
	}
}

// UploadKeys maneja POST /api/keys.
func (h *KeyHandler) UploadKeys(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req struct {
		KeyBundle struct {
			IdentityKey           string   `json:"identity_key" binding:"required"`
			SignedPrekey          string   `json:"signed_prekey" binding:"required"`
			SignedPrekeySignature string   `json:"signed_prekey_signature" binding:"required"`
			OneTimePrekeys        []string `json:"one_time_prekeys"`
		} `json:"key_bundle" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid upload keys request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	now := time.Now().UTC()
	key := domain.UserKey{
		UserID:                userID,
		IdentityKey:           req.KeyBundle.IdentityKey,
		SignedPrekey:          req.KeyBundle.SignedPrekey,
		SignedPrekeySignature: req.KeyBundle.SignedPrekeySignature,
		CreatedAt:             now,
	}
	if err := h.keys.UpsertBundle(c.Request.Context(), key); err != nil {
		h.logger.Error("upsert key bundle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store keys"})
		return
	}
	if err := h.keys.ReplaceOneTimePrekeys(c.Request.Context(), userID, req.KeyBundle.OneTimePrekeys, now); err != nil {
		h.logger.Error("replace one-time prekeys failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store keys"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetKeys maneja GET /api/keys/:username.
func (h *KeyHandler) GetKeys(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get user for keys failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch keys"})
		return
	}

	key, err := h.keys.GetBundle(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "keys not found for this user"})
			return
		}
		h.logger.Error("get key bundle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch keys"})
		return
	}

	prekeys, err := h.keys.TakeOneTimePrekeys(c.Request.Context(), user.ID, prekeyFetchLimit)
	if err != nil {
		h.logger.Error("take one-time prekeys failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch keys"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key_bundle": domain.KeyBundle{
			IdentityKey:           key.IdentityKey,
			SignedPrekey:          key.SignedPrekey,
			SignedPrekeySignature: key.SignedPrekeySignature,
			OneTimePrekeys:        prekeys,
		},
	})
}
