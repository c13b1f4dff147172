package domain

// ConversationTurn correlaciona un mensaje de usuario con las respuestas
// por modelo que le siguieron. Derivado en cada lectura; nunca se persiste.
// User puede ser nil si el log abre con mensajes assistant huerfanos.
type ConversationTurn struct {
	User      *Message              `json:"user,omitempty"`
	Responses map[ModelTag]*Message `json:"responses"`
}
