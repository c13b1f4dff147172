package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"groupchat/internal/domain"
)

// MessageRepository define el contrato sobre el log append-only. No hay
// update ni delete de mensajes; la unica mutacion posterior es la
// reaccion por sesion (upsert).
type MessageRepository interface {
	CreateLog(ctx context.Context, logID, groupID string) error
	Append(ctx context.Context, msg domain.Message) error
	ListByLog(ctx context.Context, logID string, withReactions bool) ([]domain.Message, error)
	SetReaction(ctx context.Context, messageID, sessionKey, value string) error
}

// PgMessageRepository implementa MessageRepository usando pgxpool.
// El orden del log lo asigna la columna seq al insertar; nunca se
// expone fuera del storage.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) CreateLog(ctx context.Context, logID, groupID string) error {
	const query = `
		INSERT INTO message_logs (id, group_id, created_at)
		VALUES ($1, $2, now())
	`
	_, err := r.pool.Exec(ctx, query, logID, groupID)
	return err
}

func (r *PgMessageRepository) Append(ctx context.Context, msg domain.Message) error {
	const query = `
		INSERT INTO messages (id, log_id, role, model, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var model interface{}
	if msg.Role == domain.RoleAssistant {
		model = string(msg.Model)
	}
	_, err := r.pool.Exec(ctx, query,
		msg.ID,
		msg.LogID,
		string(msg.Role),
		model,
		msg.Text.String(),
		msg.CreatedAt,
	)
	return err
}

func (r *PgMessageRepository) ListByLog(ctx context.Context, logID string, withReactions bool) ([]domain.Message, error) {
	const query = `
		SELECT id, log_id, role, model, text, created_at
		FROM messages
		WHERE log_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.pool.Query(ctx, query, logID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var role, text string
		var model *string

		err = rows.Scan(
			&msg.ID,
			&msg.LogID,
			&role,
			&model,
			&text,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		msg.Role = domain.MessageRole(role)
		if model != nil {
			msg.Model = domain.ParseModelTag(*model)
		}
		msg.Text = domain.NewRichText(text)
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if withReactions {
		if err := r.attachReactions(ctx, logID, messages); err != nil {
			return nil, err
		}
	}

	return messages, nil
}

func (r *PgMessageRepository) attachReactions(ctx context.Context, logID string, messages []domain.Message) error {
	const query = `
		SELECT mr.message_id, mr.session_key, mr.value
		FROM message_reactions mr
		JOIN messages m ON m.id = mr.message_id
		WHERE m.log_id = $1
	`
	rows, err := r.pool.Query(ctx, query, logID)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[string]int, len(messages))
	for i := range messages {
		byID[messages[i].ID] = i
	}

	for rows.Next() {
		var messageID, sessionKey, value string
		if err := rows.Scan(&messageID, &sessionKey, &value); err != nil {
			return err
		}
		i, ok := byID[messageID]
		if !ok {
			continue
		}
		if messages[i].Reactions == nil {
			messages[i].Reactions = domain.ReactionSet{}
		}
		messages[i].Reactions.Set(sessionKey, value)
	}
	return rows.Err()
}

func (r *PgMessageRepository) SetReaction(ctx context.Context, messageID, sessionKey, value string) error {
	const query = `
		INSERT INTO message_reactions (message_id, session_key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (message_id, session_key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	_, err := r.pool.Exec(ctx, query, messageID, sessionKey, value)
	return err
}
