package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groupchat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	verifier *service.TokenVerifier,
	chatH *ChatHandler,
	convH *ConversationHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	// El trigger de respuestas lleva la identidad en el body; el resto
	// de rutas resuelve el principal desde el bearer token.
	r.POST("/chat", chatH.Respond)

	convs := r.Group("/conversations")
	convs.Use(AuthMiddleware(verifier))
	convs.POST("", convH.Create)
	convs.GET("", convH.List)
	convs.POST("/:id/messages", convH.PostMessage)
	convs.GET("/:id/turns", convH.Turns)
	convs.POST("/:id/share", convH.Share)
	convs.PATCH("/:id", convH.Rename)
	convs.POST("/:id/messages/:messageId/reactions", convH.React)

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
