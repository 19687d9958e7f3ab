package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"migchat/internal/service"
)

const authUserKey = "auth_user_id"

// AuthMiddleware valida el bearer token contra el store de sesiones y guarda
// el user id resuelto en el contexto. Corre antes de toda ruta protegida.
func AuthMiddleware(authServ *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		userID, err := authServ.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authUserKey, userID)
		c.Next()
	}
}

// GetAuthUserID obtiene el user id autenticado desde el contexto.
func GetAuthUserID(c *gin.Context) (string, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return "", false
	}
	userID, ok := val.(string)
	return userID, ok
}

// GetBearerToken extrae el token crudo del header Authorization.
func GetBearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
