// Package identity resuelve principals y administra grupos de permisos.
// Es la dependencia hoja del resto del core: no conoce conversaciones
// ni mensajes.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groupchat/internal/domain"
	"groupchat/internal/repository"
)

var (
	// ErrNotFound indica que el principal o grupo pedido no existe.
	ErrNotFound = errors.New("identity: not found")
	// ErrAccessDenied indica que la identidad consultante no tiene
	// visibilidad sobre el objeto.
	ErrAccessDenied = errors.New("identity: access denied")
	// ErrInvalidRole indica un rol fuera de {admin, writer, reader}.
	ErrInvalidRole = errors.New("identity: invalid role")
)

// Service implementa resolucion de principals y membresias de grupos.
type Service struct {
	logger     *zap.Logger
	principals repository.PrincipalRepository
	groups     repository.GroupRepository
}

func NewService(logger *zap.Logger, principals repository.PrincipalRepository, groups repository.GroupRepository) *Service {
	return &Service{
		logger:     logger,
		principals: principals,
		groups:     groups,
	}
}

// ResolvePrincipal carga el registro publico de un principal usando los
// permisos de otro. asWho debe existir; si no, la falla es de acceso,
// no de existencia.
func (s *Service) ResolvePrincipal(ctx context.Context, id, asWho string) (domain.Principal, error) {
	id = strings.TrimSpace(id)
	asWho = strings.TrimSpace(asWho)
	if id == "" {
		return domain.Principal{}, ErrNotFound
	}
	if asWho == "" {
		return domain.Principal{}, ErrAccessDenied
	}

	if asWho != id {
		if _, err := s.principals.GetByID(ctx, asWho); err != nil {
			if errors.Is(err, repository.ErrNoRows) {
				return domain.Principal{}, ErrAccessDenied
			}
			return domain.Principal{}, err
		}
	}

	p, err := s.principals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return domain.Principal{}, ErrNotFound
		}
		return domain.Principal{}, err
	}
	return p, nil
}

// CreateGroup crea un grupo con owner como unico admin. La creacion y
// la membresia son escrituras separadas en el store; el caller decide
// cuando confirmarlas durables.
func (s *Service) CreateGroup(ctx context.Context, ownerID string) (domain.PermissionGroup, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domain.PermissionGroup{}, ErrNotFound
	}

	g := domain.PermissionGroup{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return domain.PermissionGroup{}, err
	}
	if err := s.groups.AddMember(ctx, g.ID, ownerID, domain.RoleAdmin); err != nil {
		return domain.PermissionGroup{}, err
	}
	g.Members = []domain.Membership{{PrincipalID: ownerID, Role: domain.RoleAdmin, AddedAt: g.CreatedAt}}
	return g, nil
}

// AddMember agrega o actualiza la membresia de un principal. Idempotente:
// repetir el add con otro rol reemplaza el rol guardado, sin error.
func (s *Service) AddMember(ctx context.Context, groupID, principalID string, role domain.Role) error {
	if !domain.ValidRole(role) {
		return ErrInvalidRole
	}
	if err := s.groups.AddMember(ctx, groupID, principalID, role); err != nil {
		return err
	}
	s.logger.Debug("group member upserted",
		zap.String("group_id", groupID),
		zap.String("principal_id", principalID),
		zap.String("role", string(role)),
	)
	return nil
}

// LoadGroup carga un grupo con su membresia completa.
func (s *Service) LoadGroup(ctx context.Context, groupID string) (domain.PermissionGroup, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return domain.PermissionGroup{}, ErrNotFound
		}
		return domain.PermissionGroup{}, err
	}
	return g, nil
}

// EnsureWorker valida (o crea en el primer arranque) el principal del
// worker. Se llama una sola vez al inicio del proceso; el orquestador
// recibe el handle ya validado, nunca un singleton perezoso.
func (s *Service) EnsureWorker(ctx context.Context, workerID string) (domain.Principal, error) {
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return domain.Principal{}, ErrNotFound
	}

	p, err := s.principals.GetByID(ctx, workerID)
	if err == nil {
		if p.Kind != domain.PrincipalWorker {
			return domain.Principal{}, ErrAccessDenied
		}
		return p, nil
	}
	if !errors.Is(err, repository.ErrNoRows) {
		return domain.Principal{}, err
	}

	p = domain.Principal{
		ID:          workerID,
		Kind:        domain.PrincipalWorker,
		DisplayName: "assistant worker",
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.principals.Create(ctx, p); err != nil {
		return domain.Principal{}, err
	}
	s.logger.Info("worker principal registered", zap.String("worker_id", workerID))
	return p, nil
}
