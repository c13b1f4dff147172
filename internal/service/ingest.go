package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groupchat/internal/barrier"
	"groupchat/internal/domain"
	"groupchat/internal/repository"
)

// ErrEmptyMessage indica un texto de usuario vacio tras normalizar.
var ErrEmptyMessage = errors.New("empty message text")

// IngestService agrega mensajes de usuario al log. Llamadas concurrentes
// del mismo autor no se coalescen: cada una produce un mensaje distinto
// en el orden de llegada que observe el store.
type IngestService struct {
	logger      *zap.Logger
	convSvc     *ConversationService
	msgs        repository.MessageRepository
	waiter      *barrier.Waiter
	stepTimeout time.Duration
}

func NewIngestService(
	logger *zap.Logger,
	convSvc *ConversationService,
	msgs repository.MessageRepository,
	waiter *barrier.Waiter,
	stepTimeout time.Duration,
) *IngestService {
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	return &IngestService{
		logger:      logger,
		convSvc:     convSvc,
		msgs:        msgs,
		waiter:      waiter,
		stepTimeout: stepTimeout,
	}
}

// AppendUserMessage agrega un mensaje role=user propiedad del grupo de
// la conversacion y retorna cuando el append es durable.
func (s *IngestService) AppendUserMessage(ctx context.Context, conversationID, authorID, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, ErrEmptyMessage
	}

	conv, group, err := s.convSvc.LoadAs(ctx, conversationID, authorID)
	if err != nil {
		return domain.Message{}, err
	}
	if !group.CanWrite(authorID) {
		return domain.Message{}, ErrForbidden
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		LogID:     conv.LogID,
		Role:      domain.RoleUser,
		Text:      domain.NewRichText(text),
		Reactions: domain.ReactionSet{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.msgs.Append(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("append user message: %w", err)
	}
	if err := s.waiter.Confirm(ctx, s.stepTimeout, barrier.Ref{Kind: barrier.KindMessage, ID: msg.ID}); err != nil {
		return domain.Message{}, fmt.Errorf("confirm user message: %w", err)
	}

	s.logger.Debug("user message appended",
		zap.String("conversation_id", conv.ID),
		zap.String("message_id", msg.ID),
	)
	return msg, nil
}
