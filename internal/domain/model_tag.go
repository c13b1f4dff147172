package domain

import "strings"

// ModelTag identifica el backend de IA que produjo un mensaje assistant.
// Enumeracion cerrada: cualquier valor no reconocido se normaliza a
// ModelUnknown en vez de tratarse como error.
type ModelTag string

const (
	ModelGPT     ModelTag = "gpt"
	ModelGemini  ModelTag = "gemini"
	ModelUnknown ModelTag = "unknown"
)

// DefaultModelTag es el slot que reciben respuestas sin tag reconocible.
const DefaultModelTag = ModelGPT

// ParseModelTag normaliza un tag textual; match exacto, sin substrings.
func ParseModelTag(s string) ModelTag {
	switch ModelTag(strings.ToLower(strings.TrimSpace(s))) {
	case ModelGPT:
		return ModelGPT
	case ModelGemini:
		return ModelGemini
	default:
		return ModelUnknown
	}
}

// KnownModelTags lista los tags soportados, en orden estable.
func KnownModelTags() []ModelTag {
	return []ModelTag{ModelGPT, ModelGemini}
}
