package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"groupchat/internal/domain"
)

// GroupRepository define el contrato de persistencia para grupos de permisos.
// AddMember es upsert: re-agregar un miembro actualiza su rol sin error.
type GroupRepository interface {
	Create(ctx context.Context, g domain.PermissionGroup) error
	AddMember(ctx context.Context, groupID, principalID string, role domain.Role) error
	GetByID(ctx context.Context, id string) (domain.PermissionGroup, error)
}

// PgGroupRepository implementa GroupRepository usando pgxpool.
type PgGroupRepository struct {
	pool *pgxpool.Pool
}

func NewPgGroupRepository(pool *pgxpool.Pool) *PgGroupRepository {
	return &PgGroupRepository{pool: pool}
}

func (r *PgGroupRepository) Create(ctx context.Context, g domain.PermissionGroup) error {
	const query = `
		INSERT INTO permission_groups (id, created_at)
		VALUES ($1, $2)
	`
	_, err := r.pool.Exec(ctx, query, g.ID, g.CreatedAt)
	return err
}

func (r *PgGroupRepository) AddMember(ctx context.Context, groupID, principalID string, role domain.Role) error {
	const query = `
		INSERT INTO group_members (group_id, principal_id, role, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, principal_id)
		DO UPDATE SET role = EXCLUDED.role
	`
	_, err := r.pool.Exec(ctx, query, groupID, principalID, string(role), time.Now().UTC())
	return err
}

func (r *PgGroupRepository) GetByID(ctx context.Context, id string) (domain.PermissionGroup, error) {
	const groupQuery = `
		SELECT id, created_at
		FROM permission_groups
		WHERE id = $1
	`
	var g domain.PermissionGroup
	err := r.pool.QueryRow(ctx, groupQuery, id).Scan(&g.ID, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PermissionGroup{}, err
	}
	if err != nil {
		return domain.PermissionGroup{}, err
	}

	const membersQuery = `
		SELECT principal_id, role, added_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY added_at ASC
	`
	rows, err := r.pool.Query(ctx, membersQuery, id)
	if err != nil {
		return domain.PermissionGroup{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Membership
		var role string
		if err := rows.Scan(&m.PrincipalID, &role, &m.AddedAt); err != nil {
			return domain.PermissionGroup{}, err
		}
		m.Role = domain.Role(role)
		g.Members = append(g.Members, m)
	}
	if err := rows.Err(); err != nil {
		return domain.PermissionGroup{}, err
	}

	return g, nil
}
