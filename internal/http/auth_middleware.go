package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"groupchat/internal/service"
)

const principalIDKey = "principal_id"

// AuthMiddleware valida el bearer token y guarda el principal id en el
// contexto. El core nunca ve credenciales: solo el subject opaco.
func AuthMiddleware(verifier *service.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		principalID, err := verifier.PrincipalID(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(principalIDKey, principalID)
		c.Next()
	}
}

// PrincipalFrom obtiene el principal id autenticado desde el contexto.
func PrincipalFrom(c *gin.Context) (string, bool) {
	val, ok := c.Get(principalIDKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}
