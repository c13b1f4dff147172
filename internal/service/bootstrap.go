package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groupchat/internal/barrier"
	"groupchat/internal/domain"
	"groupchat/internal/repository"
)

// ErrWorkerUnavailable indica que el worker no pudo resolverse al crear
// la conversacion. Sin worker escritor no hay chat funcional, asi que
// la creacion se aborta entera.
var ErrWorkerUnavailable = errors.New("worker principal unavailable")

// BootstrapService crea conversaciones nuevas con su grupo de permisos.
// Cada paso confirma durabilidad antes del siguiente: saltarse una
// barrera deja al worker sin poder escribir mas adelante, y eso debe
// fallar aqui de forma visible, no como chat parcial silencioso.
type BootstrapService struct {
	logger      *zap.Logger
	identity    Identity
	convs       repository.ConversationRepository
	msgs        repository.MessageRepository
	waiter      *barrier.Waiter
	marker      BootstrapMarker
	workerID    string
	stepTimeout time.Duration
}

func NewBootstrapService(
	logger *zap.Logger,
	id Identity,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	waiter *barrier.Waiter,
	marker BootstrapMarker,
	workerID string,
	stepTimeout time.Duration,
) *BootstrapService {
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	return &BootstrapService{
		logger:      logger,
		identity:    id,
		convs:       convs,
		msgs:        msgs,
		waiter:      waiter,
		marker:      marker,
		workerID:    workerID,
		stepTimeout: stepTimeout,
	}
}

// CreateConversation ejecuta la secuencia de arranque completa:
// resolver worker, crear grupo, initiator admin, worker writer, log
// vacio, conversacion, indice personal. Todo timeout de barrera es
// fallo duro en este camino.
func (s *BootstrapService) CreateConversation(ctx context.Context, initiatorID string) (domain.Conversation, error) {
	worker, err := s.identity.ResolvePrincipal(ctx, s.workerID, initiatorID)
	if err != nil {
		s.logger.Error("worker resolution failed", zap.Error(err), zap.String("worker_id", s.workerID))
		return domain.Conversation{}, fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)
	}

	group, err := s.identity.CreateGroup(ctx, initiatorID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("create group: %w", err)
	}
	if err := s.confirm(ctx,
		barrier.Ref{Kind: barrier.KindGroup, ID: group.ID},
		barrier.Ref{Kind: barrier.KindMembership, ID: initiatorID, Scope: group.ID},
	); err != nil {
		return domain.Conversation{}, fmt.Errorf("confirm group: %w", err)
	}

	if err := s.identity.AddMember(ctx, group.ID, worker.ID, domain.RoleWriter); err != nil {
		return domain.Conversation{}, fmt.Errorf("grant worker writer: %w", err)
	}
	if err := s.confirm(ctx, barrier.Ref{Kind: barrier.KindMembership, ID: worker.ID, Scope: group.ID}); err != nil {
		return domain.Conversation{}, fmt.Errorf("confirm worker membership: %w", err)
	}

	logID := uuid.NewString()
	if err := s.msgs.CreateLog(ctx, logID, group.ID); err != nil {
		return domain.Conversation{}, fmt.Errorf("create message log: %w", err)
	}
	if err := s.confirm(ctx, barrier.Ref{Kind: barrier.KindLog, ID: logID}); err != nil {
		return domain.Conversation{}, fmt.Errorf("confirm message log: %w", err)
	}

	conv := domain.Conversation{
		ID:        uuid.NewString(),
		Name:      domain.DefaultConversationName,
		GroupID:   group.ID,
		LogID:     logID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	if err := s.confirm(ctx, barrier.Ref{Kind: barrier.KindConversation, ID: conv.ID}); err != nil {
		return domain.Conversation{}, fmt.Errorf("confirm conversation: %w", err)
	}

	if err := s.convs.AddToIndex(ctx, initiatorID, conv.ID); err != nil {
		return domain.Conversation{}, fmt.Errorf("register in index: %w", err)
	}
	if err := s.confirm(ctx, barrier.Ref{Kind: barrier.KindIndexEntry, ID: conv.ID, Scope: initiatorID}); err != nil {
		return domain.Conversation{}, fmt.Errorf("confirm index entry: %w", err)
	}

	if s.marker != nil {
		if err := s.marker.Mark(ctx, conv.ID); err != nil {
			// El marcador solo suaviza el 404 durante la propagacion;
			// no bloquea la creacion.
			s.logger.Warn("bootstrap marker failed", zap.Error(err), zap.String("conversation_id", conv.ID))
		}
	}

	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("group_id", group.ID),
		zap.String("initiator", initiatorID),
	)
	return conv, nil
}

func (s *BootstrapService) confirm(ctx context.Context, refs ...barrier.Ref) error {
	return s.waiter.Confirm(ctx, s.stepTimeout, refs...)
}
