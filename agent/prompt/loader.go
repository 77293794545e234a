package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/persona.txt
	personaRaw string

	//go:embed template/intent.txt
	intentRaw string

	//go:embed template/memory.txt
	memoryRaw string
)

// PromptSet holds the loaded system prompts.
type PromptSet struct {
	Persona    string
	Classifier string
	Memory     string
}

// LoadPromptSet returns trimmed prompt strings. Safe to call concurrently;
// the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Persona:    strings.TrimSpace(personaRaw),
		Classifier: strings.TrimSpace(intentRaw),
		Memory:     strings.TrimSpace(memoryRaw),
	}
}
