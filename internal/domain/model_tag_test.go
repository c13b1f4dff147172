package domain

import "testing"

func TestParseModelTag_Known(t *testing.T) {
	cases := map[string]ModelTag{
		"gpt":      ModelGPT,
		" GPT ":    ModelGPT,
		"gemini":   ModelGemini,
		"Gemini":   ModelGemini,
		"":         ModelUnknown,
		"gpt-4":    ModelUnknown,
		"gpt4o":    ModelUnknown,
		"claude":   ModelUnknown,
		"geminix":  ModelUnknown,
		"unknown":  ModelUnknown,
		"GEMINI\t": ModelGemini,
	}
	for in, want := range cases {
		if got := ParseModelTag(in); got != want {
			t.Fatalf("ParseModelTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseModelTag_NoSubstringMatch(t *testing.T) {
	// "gpt-4.1-nano" contiene "gpt" pero no es un tag valido; el match
	// debe ser exacto.
	if got := ParseModelTag("gpt-4.1-nano"); got != ModelUnknown {
		t.Fatalf("expected unknown for partial match, got %q", got)
	}
}

func TestKnownModelTags(t *testing.T) {
	tags := KnownModelTags()
	if len(tags) != 2 || tags[0] != ModelGPT || tags[1] != ModelGemini {
		t.Fatalf("unexpected known tags: %v", tags)
	}
}
