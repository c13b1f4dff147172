package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groupchat/internal/domain"
	"groupchat/internal/service"
)

// ChatHandler mantiene dependencias para el trigger de respuestas.
type ChatHandler struct {
	logger  *zap.Logger
	orch    *service.Orchestrator
	limiter service.RespondRateLimiter
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	orch *service.Orchestrator,
	limiter service.RespondRateLimiter,
) *ChatHandler {
	return &ChatHandler{
		logger:  logger,
		orch:    orch,
		limiter: limiter,
	}
}

// Respond maneja POST /chat: pide una respuesta a cada modelo listado
// y devuelve un mapa de exito por modelo. Un modelo fallido nunca
// tumba a sus hermanos ni a la peticion.
func (h *ChatHandler) Respond(c *gin.Context) {
	var req struct {
		ChatID        string   `json:"chatId"`
		UserID        string   `json:"userId"`
		LastMessageID string   `json:"lastMessageId"`
		Models        []string `json:"models"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.ChatID == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chatId and userId are required"})
		return
	}

	if h.limiter != nil && !h.limiter.Allow(req.UserID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	// Los tags se parsean con match exacto; los desconocidos no se
	// envian al orquestador pero si figuran en la respuesta como false.
	tags := make([]domain.ModelTag, 0, len(req.Models))
	for _, raw := range req.Models {
		if tag := domain.ParseModelTag(raw); tag != domain.ModelUnknown {
			tags = append(tags, tag)
		}
	}

	report, err := h.orch.RespondTo(c.Request.Context(), req.ChatID, req.UserID, tags)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrConversationUnavailable):
			c.JSON(http.StatusNotFound, gin.H{"error": "chat or account not found"})
		case errors.Is(err, service.ErrNoContext):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no user messages to respond to"})
		default:
			h.logger.Error("respond failed", zap.Error(err), zap.String("chat_id", req.ChatID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate responses"})
		}
		return
	}

	modelResults := make(map[string]bool, len(req.Models))
	for _, raw := range req.Models {
		tag := domain.ParseModelTag(raw)
		modelResults[raw] = tag != domain.ModelUnknown && report.Results[tag]
	}

	c.JSON(http.StatusOK, gin.H{
		"chatId":       req.ChatID,
		"success":      true,
		"modelResults": modelResults,
	})
}
