package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"groupchat/internal/domain"
)

// ConversationRepository define el contrato de persistencia para
// conversaciones y el indice personal de cada principal.
type ConversationRepository interface {
	Create(ctx context.Context, c domain.Conversation) error
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	Rename(ctx context.Context, id, name string) error
	AddToIndex(ctx context.Context, principalID, conversationID string) error
	ListIndex(ctx context.Context, principalID string) ([]domain.Conversation, error)
}

// PgConversationRepository implementa ConversationRepository usando pgxpool.
type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) Create(ctx context.Context, c domain.Conversation) error {
	const query = `
		INSERT INTO conversations (id, name, group_id, log_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.GroupID,
		c.LogID,
		c.CreatedAt,
	)
	return err
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `
		SELECT id, name, group_id, log_id, created_at
		FROM conversations
		WHERE id = $1
	`
	var c domain.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.GroupID,
		&c.LogID,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, err
	}
	return c, err
}

func (r *PgConversationRepository) Rename(ctx context.Context, id, name string) error {
	const query = `
		UPDATE conversations SET name = $2 WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgConversationRepository) AddToIndex(ctx context.Context, principalID, conversationID string) error {
	const query = `
		INSERT INTO conversation_index (principal_id, conversation_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (principal_id, conversation_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, principalID, conversationID, time.Now().UTC())
	return err
}

func (r *PgConversationRepository) ListIndex(ctx context.Context, principalID string) ([]domain.Conversation, error) {
	const query = `
		SELECT c.id, c.name, c.group_id, c.log_id, c.created_at
		FROM conversation_index i
		JOIN conversations c ON c.id = i.conversation_id
		WHERE i.principal_id = $1
		ORDER BY i.added_at ASC
	`
	rows, err := r.pool.Query(ctx, query, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.Name, &c.GroupID, &c.LogID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
