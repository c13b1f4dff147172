package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"groupchat/internal/domain"
)

// ErrNoRows marca lecturas sin resultado; los servicios lo traducen a
// sus propios sentinels (NotFound, AccessDenied).
var ErrNoRows = pgx.ErrNoRows

// PrincipalRepository define el contrato de persistencia para principals.
type PrincipalRepository interface {
	Create(ctx context.Context, p domain.Principal) error
	GetByID(ctx context.Context, id string) (domain.Principal, error)
}

// PgPrincipalRepository implementa PrincipalRepository usando pgxpool.
type PgPrincipalRepository struct {
	pool *pgxpool.Pool
}

func NewPgPrincipalRepository(pool *pgxpool.Pool) *PgPrincipalRepository {
	return &PgPrincipalRepository{pool: pool}
}

func (r *PgPrincipalRepository) Create(ctx context.Context, p domain.Principal) error {
	const query = `
		INSERT INTO principals (id, kind, display_name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		string(p.Kind),
		p.DisplayName,
		p.CreatedAt,
	)
	return err
}

func (r *PgPrincipalRepository) GetByID(ctx context.Context, id string) (domain.Principal, error) {
	const query = `
		SELECT id, kind, display_name, created_at
		FROM principals
		WHERE id = $1
	`
	var p domain.Principal
	var kind string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&kind,
		&p.DisplayName,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Principal{}, err
	}
	p.Kind = domain.PrincipalKind(kind)
	return p, err
}
