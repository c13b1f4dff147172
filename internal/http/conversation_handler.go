package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groupchat/internal/service"
)

// ConversationHandler mantiene dependencias para el ciclo de vida de
// conversaciones: bootstrap, ingestion, lectura y administracion.
type ConversationHandler struct {
	logger    *zap.Logger
	bootstrap *service.BootstrapService
	convs     *service.ConversationService
	ingest    *service.IngestService
	marker    service.BootstrapMarker
}

// NewConversationHandler crea una instancia con dependencias necesarias.
func NewConversationHandler(
	logger *zap.Logger,
	bootstrap *service.BootstrapService,
	convs *service.ConversationService,
	ingest *service.IngestService,
	marker service.BootstrapMarker,
) *ConversationHandler {
	return &ConversationHandler{
		logger:    logger,
		bootstrap: bootstrap,
		convs:     convs,
		ingest:    ingest,
		marker:    marker,
	}
}

// Create maneja POST /conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	principalID, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	conv, err := h.bootstrap.CreateConversation(c.Request.Context(), principalID)
	if err != nil {
		h.logger.Error("bootstrap failed", zap.Error(err), zap.String("principal_id", principalID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

// List maneja GET /conversations: el indice personal del principal.
func (h *ConversationHandler) List(c *gin.Context) {
	principalID, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	convs, err := h.convs.Index(c.Request.Context(), principalID)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// PostMessage maneja POST /conversations/:id/messages.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	principalID, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := h.ingest.AppendUserMessage(c.Request.Context(), c.Param("id"), principalID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty message"})
		case errors.Is(err, service.ErrConversationNotFound), errors.Is(err, service.ErrForbidden):
			h.replyNotFound(c, c.Param("id"))
		default:
			h.logger.Error("append message failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not post message"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Turns maneja GET /conversations/:id/turns.
func (h *ConversationHandler) Turns(c *gin.Context) {
	principalID, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	turns, err := h.convs.Turns(c.Request.Context(), c.Param("id"), principalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound), errors.Is(err, service.ErrForbidden):
			h.replyNotFound(c, c.Param("id"))
		default:
			h.logger.Error("load turns failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load conversation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

// Share maneja POST /conversations/:id/share.
func (h *ConversationHandler) Share(c *gin.Context) {
	principalID, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	if err := h.convs.Share(c.Request.Context(), c.Param("id"), principalID); err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound), errors.Is(err, service.ErrForbidden):
			h.replyNotFound(c, c.Param("id"))
		default:
			h.logger.Error("share failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not share conversation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"shared": true})
}

// Rename maneja PATCH /conversations/:id.
func (h *ConversationHandler) Rename(c *gin.Context) {
	principalID, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.convs.Rename(c.Request.Context(), c.Param("id"), principalID, req.Name); err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound), errors.Is(err, service.ErrForbidden):
			h.replyNotFound(c, c.Param("id"))
		default:
			h.logger.Error("rename failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not rename conversation"})
		}
		return
	}

	conv, _, err := h.convs.LoadAs(c.Request.Context(), c.Param("id"), principalID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"renamed": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

// React maneja POST /conversations/:id/messages/:messageId/reactions.
func (h *ConversationHandler) React(c *gin.Context) {
	principalID, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req struct {
		SessionKey string `json:"sessionKey" binding:"required"`
		Value      string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.convs.React(c.Request.Context(), c.Param("id"), principalID, c.Param("messageId"), req.SessionKey, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound), errors.Is(err, service.ErrForbidden):
			h.replyNotFound(c, c.Param("id"))
		case errors.Is(err, service.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		default:
			h.logger.Error("react failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not set reaction"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reacted": true})
}

// replyNotFound distingue una conversacion inexistente de una recien
// creada que todavia no es visible: con el marcador de bootstrap
// presente se responde 202 "syncing" en vez de 404. AccessDenied
// tambien cae aqui para no filtrar existencia.
func (h *ConversationHandler) replyNotFound(c *gin.Context, conversationID string) {
	if h.marker != nil {
		pending, err := h.marker.Pending(c.Request.Context(), conversationID)
		if err != nil {
			h.logger.Warn("bootstrap marker check failed", zap.Error(err))
		} else if pending {
			c.JSON(http.StatusAccepted, gin.H{"state": "syncing"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
}
