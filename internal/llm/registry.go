package llm

import "groupchat/internal/domain"

// Prompts de sistema por tag. El de gpt imita a un contacto de chat
// grupal; el de gemini es un asistente convencional.
const (
	GPTSystemPrompt = "You are like a friend in a whatsapp group chat. " +
		"Don't ever say that you're here to hang out. Don't behave like a system. " +
		"Only answer to the last message from the user. The messages before are just context."
	GeminiSystemPrompt = "You are a helpful, friendly assistant. " +
		"Respond to the user's message in a conversational way."
)

// Entry asocia un backend con su instruccion de sistema.
type Entry struct {
	Backend      Backend
	SystemPrompt string
}

// Registry mapea tags de modelo a backends configurados. Conjunto
// abierto: el orquestador no asume nada mas alla de lo registrado.
type Registry struct {
	entries map[domain.ModelTag]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[domain.ModelTag]Entry{}}
}

// Register asocia un tag con su backend. Sobrescribe si ya existia.
func (r *Registry) Register(tag domain.ModelTag, backend Backend, systemPrompt string) {
	r.entries[tag] = Entry{Backend: backend, SystemPrompt: systemPrompt}
}

// Lookup devuelve el backend del tag, si esta registrado.
func (r *Registry) Lookup(tag domain.ModelTag) (Entry, bool) {
	e, ok := r.entries[tag]
	return e, ok
}

// Tags devuelve los tags registrados.
func (r *Registry) Tags() []domain.ModelTag {
	out := make([]domain.ModelTag, 0, len(r.entries))
	for tag := range r.entries {
		out = append(out, tag)
	}
	return out
}
