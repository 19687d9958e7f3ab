package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"migchat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	authServ *service.AuthService,
	accountH *AccountHandler,
	messageH *MessageHandler,
	keyH *KeyHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	account := r.Group("/api/account")
	account.POST("/create", accountH.CreateAccount)
	account.POST("/login", accountH.Login)

	authed := AuthMiddleware(authServ)
	account.POST("/logout", authed, accountH.Logout)
	account.PUT("/username", authed, accountH.UpdateUsername)

	messages := r.Group("/api/messages", authed)
	messages.POST("/send", messageH.SendMessage)
	messages.GET("", messageH.ListMessages)
	messages.POST("/read", messageH.MarkRead)

	r.GET("/api/conversations", authed, messageH.ListConversations)

	r.POST("/api/keys", authed, keyH.UploadKeys)
	r.GET("/api/keys/:username", keyH.GetKeys)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
