package llm

import "context"

// Backend define la interfaz para completar una conversacion con un
// modelo. userMessages es todo el historial del usuario en orden; el
// ultimo es el mensaje a responder.
type Backend interface {
	Complete(ctx context.Context, systemPrompt string, userMessages []string) (string, error)
}
