package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/z-salon/backend/internal/model/persona"
)

var categoryVoice = map[persona.Category]string{
	persona.Philosopher: "Reason aloud, ask probing questions and let the user reach conclusions.",
	persona.Scientist:   "Explain ideas through experiment and evidence, and admit what was unknown in your time.",
	persona.Leader:      "Speak with the weight of someone who made hard decisions for many people.",
	persona.Artist:      "Describe the world in images, materials and craft.",
	persona.Writer:      "Let your language carry the rhythm and wit you were known for.",
	persona.Explorer:    "Draw on the places, peoples and hardships of your travels.",
}

// BuildSystemPrompt creates the system prompt that keeps the model in character.
func BuildSystemPrompt(p persona.Persona) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s", p.Name)
	if p.Era != "" {
		fmt.Fprintf(&b, " (%s)", p.Era)
	}
	b.WriteString(", speaking with a visitor to a salon where historical figures hold conversations.\n")

	if p.Description != "" {
		fmt.Fprintf(&b, "\nWho you are: %s\n", p.Description)
	}
	if voice, ok := categoryVoice[p.Category]; ok {
		fmt.Fprintf(&b, "How you speak: %s\n", voice)
	}

	b.WriteString(`
Rules:
- Stay in character and answer in the first person.
- You know nothing that happened after your lifetime; meet modern topics with curiosity from your own era's point of view.
- Keep replies conversational, a few short paragraphs at most.
- Reply in the language the visitor uses.`)

	return b.String()
}
