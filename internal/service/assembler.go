package service

import "groupchat/internal/domain"

// AssembleTurns pliega el log ordenado en turnos conversacionales.
// Funcion pura: misma entrada, misma salida; no muta los mensajes.
//
// Un mensaje user abre un turno nuevo. Un mensaje assistant se adjunta
// al turno abierto mas reciente; si el log arranca con assistants, se
// abre un turno sin mensaje de usuario para contenerlos. El slot lo
// decide el tag del modelo; un tag ausente o no reconocido cae al slot
// por defecto en vez de descartarse. Dos respuestas con el mismo tag en
// un turno: gana la ultima (una respuesta por modelo por turno).
func AssembleTurns(messages []domain.Message) []domain.ConversationTurn {
	var turns []domain.ConversationTurn
	open := -1

	for i := range messages {
		msg := messages[i]
		switch msg.Role {
		case domain.RoleUser:
			turns = append(turns, domain.ConversationTurn{
				User:      &msg,
				Responses: map[domain.ModelTag]*domain.Message{},
			})
			open = len(turns) - 1
		case domain.RoleAssistant:
			if open < 0 {
				turns = append(turns, domain.ConversationTurn{
					Responses: map[domain.ModelTag]*domain.Message{},
				})
				open = len(turns) - 1
			}
			slot := msg.Model
			if slot == "" || slot == domain.ModelUnknown {
				slot = domain.DefaultModelTag
			}
			turns[open].Responses[slot] = &msg
		}
	}

	return turns
}
