package domain

import "time"

// MessageRole distingue mensajes del usuario de respuestas de modelos.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ReactionSet mapea una clave de sesion a su reaccion. Solo upsert;
// el orden de insercion es irrelevante.
type ReactionSet map[string]string

// Set registra o reemplaza la reaccion de una sesion.
func (r ReactionSet) Set(sessionKey, value string) {
	r[sessionKey] = value
}

// Message es una entrada del log. Inmutable despues del append salvo
// Reactions. El orden dentro del log lo asigna el store al insertar;
// no hay numero de secuencia expuesto.
type Message struct {
	ID        string      `json:"id"`
	LogID     string      `json:"log_id"`
	Role      MessageRole `json:"role"`
	Model     ModelTag    `json:"model,omitempty"`
	Text      RichText    `json:"text"`
	Reactions ReactionSet `json:"reactions,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
