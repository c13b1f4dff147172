package domain

import "time"

// DefaultConversationName es el nombre asignado al crear una conversacion.
const DefaultConversationName = "Unnamed"

// Conversation agrupa el log de mensajes bajo un grupo de permisos.
// El log queda fijo en la creacion; nunca se reemplaza, solo crece.
type Conversation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GroupID   string    `json:"group_id"`
	LogID     string    `json:"log_id"`
	CreatedAt time.Time `json:"created_at"`
}
