package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"groupchat/internal/domain"
	"groupchat/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrForbidden            = errors.New("principal lacks required role")
	ErrMessageNotFound      = errors.New("message not found")
)

// Identity es el subconjunto de identity.Service que consumen los
// servicios de conversacion.
type Identity interface {
	ResolvePrincipal(ctx context.Context, id, asWho string) (domain.Principal, error)
	CreateGroup(ctx context.Context, ownerID string) (domain.PermissionGroup, error)
	AddMember(ctx context.Context, groupID, principalID string, role domain.Role) error
	LoadGroup(ctx context.Context, groupID string) (domain.PermissionGroup, error)
}

// ConversationService resuelve conversaciones bajo una identidad y
// aplica las operaciones de administracion (rename, share, reacciones).
type ConversationService struct {
	logger   *zap.Logger
	identity Identity
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
}

func NewConversationService(
	logger *zap.Logger,
	id Identity,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
) *ConversationService {
	return &ConversationService{
		logger:   logger,
		identity: id,
		convs:    convs,
		msgs:     msgs,
	}
}

// LoadAs carga una conversacion con los permisos de asWho. Si el
// objeto no existe devuelve ErrConversationNotFound; si existe pero
// asWho no es lector, ErrForbidden.
func (s *ConversationService) LoadAs(ctx context.Context, conversationID, asWho string) (domain.Conversation, domain.PermissionGroup, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return domain.Conversation{}, domain.PermissionGroup{}, ErrConversationNotFound
		}
		return domain.Conversation{}, domain.PermissionGroup{}, err
	}

	group, err := s.identity.LoadGroup(ctx, conv.GroupID)
	if err != nil {
		return domain.Conversation{}, domain.PermissionGroup{}, err
	}
	if !group.CanRead(asWho) {
		return domain.Conversation{}, domain.PermissionGroup{}, ErrForbidden
	}

	return conv, group, nil
}

// Messages devuelve el log completo de la conversacion en orden de
// insercion, con reacciones resueltas.
func (s *ConversationService) Messages(ctx context.Context, conv domain.Conversation) ([]domain.Message, error) {
	return s.msgs.ListByLog(ctx, conv.LogID, true)
}

// Turns carga el log bajo asWho y lo pliega en turnos conversacionales.
func (s *ConversationService) Turns(ctx context.Context, conversationID, asWho string) ([]domain.ConversationTurn, error) {
	conv, _, err := s.LoadAs(ctx, conversationID, asWho)
	if err != nil {
		return nil, err
	}
	messages, err := s.Messages(ctx, conv)
	if err != nil {
		return nil, err
	}
	return AssembleTurns(messages), nil
}

// Rename cambia el nombre de la conversacion. Solo admins del grupo.
func (s *ConversationService) Rename(ctx context.Context, conversationID, asWho, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultConversationName
	}

	conv, group, err := s.LoadAs(ctx, conversationID, asWho)
	if err != nil {
		return err
	}
	if role, ok := group.RoleOf(asWho); !ok || role != domain.RoleAdmin {
		return ErrForbidden
	}
	return s.convs.Rename(ctx, conv.ID, name)
}

// Share publica la conversacion agregando "everyone" como lector.
// Idempotente, como toda membresia.
func (s *ConversationService) Share(ctx context.Context, conversationID, asWho string) error {
	conv, group, err := s.LoadAs(ctx, conversationID, asWho)
	if err != nil {
		return err
	}
	if role, ok := group.RoleOf(asWho); !ok || role != domain.RoleAdmin {
		return ErrForbidden
	}
	if err := s.identity.AddMember(ctx, conv.GroupID, domain.EveryonePrincipalID, domain.RoleReader); err != nil {
		return err
	}
	s.logger.Info("conversation shared", zap.String("conversation_id", conv.ID))
	return nil
}

// React registra o reemplaza la reaccion de una sesion sobre un mensaje.
// Cualquier lector de la conversacion puede reaccionar.
func (s *ConversationService) React(ctx context.Context, conversationID, asWho, messageID, sessionKey, value string) error {
	conv, _, err := s.LoadAs(ctx, conversationID, asWho)
	if err != nil {
		return err
	}

	messages, err := s.msgs.ListByLog(ctx, conv.LogID, false)
	if err != nil {
		return err
	}
	found := false
	for _, m := range messages {
		if m.ID == messageID {
			found = true
			break
		}
	}
	if !found {
		return ErrMessageNotFound
	}

	return s.msgs.SetReaction(ctx, messageID, sessionKey, value)
}

// Index lista las conversaciones registradas en el indice personal.
func (s *ConversationService) Index(ctx context.Context, principalID string) ([]domain.Conversation, error) {
	return s.convs.ListIndex(ctx, principalID)
}
