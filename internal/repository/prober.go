package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"groupchat/internal/barrier"
)

// PgProber verifica visibilidad de escrituras por lectura directa.
// Es el lado de lectura de la barrera de durabilidad.
type PgProber struct {
	pool *pgxpool.Pool
}

func NewPgProber(pool *pgxpool.Pool) *PgProber {
	return &PgProber{pool: pool}
}

func (p *PgProber) Visible(ctx context.Context, ref barrier.Ref) (bool, error) {
	var query string
	args := []interface{}{ref.ID}

	switch ref.Kind {
	case barrier.KindPrincipal:
		query = `SELECT EXISTS (SELECT 1 FROM principals WHERE id = $1)`
	case barrier.KindGroup:
		query = `SELECT EXISTS (SELECT 1 FROM permission_groups WHERE id = $1)`
	case barrier.KindMembership:
		query = `SELECT EXISTS (SELECT 1 FROM group_members WHERE principal_id = $1 AND group_id = $2)`
		args = append(args, ref.Scope)
	case barrier.KindLog:
		query = `SELECT EXISTS (SELECT 1 FROM message_logs WHERE id = $1)`
	case barrier.KindConversation:
		query = `SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`
	case barrier.KindMessage:
		query = `SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`
	case barrier.KindIndexEntry:
		query = `SELECT EXISTS (SELECT 1 FROM conversation_index WHERE conversation_id = $1 AND principal_id = $2)`
		args = append(args, ref.Scope)
	default:
		return false, fmt.Errorf("unknown barrier kind %q", ref.Kind)
	}

	var exists bool
	err := p.pool.QueryRow(ctx, query, args...).Scan(&exists)
	return exists, err
}
