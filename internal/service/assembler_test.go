package service

import (
	"reflect"
	"testing"

	"groupchat/internal/domain"
)

func userMsg(id, text string) domain.Message {
	return domain.Message{ID: id, Role: domain.RoleUser, Text: domain.NewRichText(text)}
}

func assistantMsg(id string, model domain.ModelTag, text string) domain.Message {
	return domain.Message{ID: id, Role: domain.RoleAssistant, Model: model, Text: domain.NewRichText(text)}
}

func TestAssembleTurns_PairsUserWithResponses(t *testing.T) {
	log := []domain.Message{
		userMsg("u1", "hola"),
		assistantMsg("a1", domain.ModelGPT, "hola!"),
		assistantMsg("a2", domain.ModelGemini, "buenas"),
		userMsg("u2", "que tal"),
		assistantMsg("a3", domain.ModelGPT, "bien"),
	}

	turns := AssembleTurns(log)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].User.ID != "u1" || turns[1].User.ID != "u2" {
		t.Fatalf("turn order does not follow user message order")
	}
	if turns[0].Responses[domain.ModelGPT].ID != "a1" {
		t.Fatalf("expected gpt slot a1")
	}
	if turns[0].Responses[domain.ModelGemini].ID != "a2" {
		t.Fatalf("expected gemini slot a2")
	}
	if len(turns[1].Responses) != 1 || turns[1].Responses[domain.ModelGPT].ID != "a3" {
		t.Fatalf("expected only gpt response in second turn")
	}
}

func TestAssembleTurns_OrphanAssistantOpensTurn(t *testing.T) {
	log := []domain.Message{
		assistantMsg("a1", domain.ModelGemini, "hola"),
		userMsg("u1", "hola"),
	}

	turns := AssembleTurns(log)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].User != nil {
		t.Fatalf("expected first turn without user message")
	}
	if turns[0].Responses[domain.ModelGemini].ID != "a1" {
		t.Fatalf("expected orphan assistant held in implicit turn")
	}
	if turns[1].User.ID != "u1" {
		t.Fatalf("expected second turn for u1")
	}
}

func TestAssembleTurns_UnknownTagFallsBackToDefaultSlot(t *testing.T) {
	log := []domain.Message{
		userMsg("u1", "hola"),
		assistantMsg("a1", domain.ModelUnknown, "sin tag"),
	}

	turns := AssembleTurns(log)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	got := turns[0].Responses[domain.DefaultModelTag]
	if got == nil || got.ID != "a1" {
		t.Fatalf("expected unknown tag in default slot, got %+v", turns[0].Responses)
	}
	// Nunca se descarta: exactamente un slot ocupado.
	if len(turns[0].Responses) != 1 {
		t.Fatalf("expected exactly one slot, got %d", len(turns[0].Responses))
	}
}

func TestAssembleTurns_MissingTagFallsBackToDefaultSlot(t *testing.T) {
	log := []domain.Message{
		userMsg("u1", "hola"),
		{ID: "a1", Role: domain.RoleAssistant, Text: domain.NewRichText("sin modelo")},
	}

	turns := AssembleTurns(log)
	if got := turns[0].Responses[domain.DefaultModelTag]; got == nil || got.ID != "a1" {
		t.Fatalf("expected missing tag in default slot")
	}
}

func TestAssembleTurns_LastWriteWinsPerTag(t *testing.T) {
	log := []domain.Message{
		userMsg("u1", "hola"),
		assistantMsg("a1", domain.ModelGPT, "primera"),
		assistantMsg("a2", domain.ModelGPT, "segunda"),
	}

	turns := AssembleTurns(log)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	got := turns[0].Responses[domain.ModelGPT]
	if got.ID != "a2" {
		t.Fatalf("expected later message to win the slot, got %q", got.ID)
	}
	if len(turns[0].Responses) != 1 {
		t.Fatalf("expected single slot after overwrite")
	}
}

func TestAssembleTurns_EmptyAndNoResponses(t *testing.T) {
	if turns := AssembleTurns(nil); len(turns) != 0 {
		t.Fatalf("expected no turns for empty log")
	}

	turns := AssembleTurns([]domain.Message{userMsg("u1", "hola")})
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if len(turns[0].Responses) != 0 {
		t.Fatalf("expected all slots absent, got %+v", turns[0].Responses)
	}
}

func TestAssembleTurns_IsPure(t *testing.T) {
	log := []domain.Message{
		userMsg("u1", "hola"),
		assistantMsg("a1", domain.ModelGPT, "hola!"),
		assistantMsg("a2", domain.ModelUnknown, "extra"),
	}

	first := AssembleTurns(log)
	second := AssembleTurns(log)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic output")
	}
	if log[1].Model != domain.ModelGPT || log[2].Model != domain.ModelUnknown {
		t.Fatalf("input log must not be mutated")
	}
}

func TestAssembleTurns_PreservesUserOrderProperty(t *testing.T) {
	// Cualquier secuencia: los turnos siguen el orden relativo del
	// primer mensaje user de cada turno.
	log := []domain.Message{
		assistantMsg("a0", domain.ModelGemini, "huerfano"),
		userMsg("u1", "uno"),
		userMsg("u2", "dos"),
		assistantMsg("a1", domain.ModelGPT, "para dos"),
		userMsg("u3", "tres"),
	}

	turns := AssembleTurns(log)
	var users []string
	for _, turn := range turns {
		if turn.User != nil {
			users = append(users, turn.User.ID)
		}
	}
	want := []string{"u1", "u2", "u3"}
	if !reflect.DeepEqual(users, want) {
		t.Fatalf("expected user order %v, got %v", want, users)
	}
	if turns[3].Responses[domain.ModelGPT] != nil {
		t.Fatalf("a1 should attach to u2's turn, not u3's")
	}
	if turns[2].Responses[domain.ModelGPT] == nil {
		t.Fatalf("expected a1 attached to the open turn at its position")
	}
}
