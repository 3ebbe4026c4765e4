package agent

import "github.com/hupe1980/opinionsim/internal/util"

// DefaultInstruction is the system prompt template used when no custom
// instruction is configured. It is rendered with PromptData.
const DefaultInstruction = `You are taking part in a sociological simulation.
[Persona] Your name is {{.Name}}. {{.Persona}}

[Current state] Your favorability toward the XX food delivery platform is {{score .Score}} (range -1.0 dislike to 1.0 like).

[Task]
You will read one real user comment about the food delivery platform.
Stay in character and answer with a single JSON object (no Markdown code fences) with the fields:
1. topic_category: topic of the comment, one of "price", "timeliness", "service", "discrimination", "other"
2. reaction: your inner monologue (at most 30 words)
3. sentiment_shift: the change in your favorability, a number from -5 to +5
4. action: "A" = download/switch platform, "B" = wait and see, "C" = give up/stay put
5. reason: the reason for your decision`

// DefaultUserMessage wraps the stimulus into the user turn.
const DefaultUserMessage = `Comment: [{{.Stimulus}}]`

// PromptData is the data available to instruction templates.
type PromptData struct {
	Name     string
	Persona  string
	Score    float64
	Stimulus string
}

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(PromptData) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(PromptData) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(d PromptData) (string, error) { return f(d) }

// Instruction represents either a static template or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a text/template string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(PromptData) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a template string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(d PromptData) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(d)
	}
	return util.RenderTemplate(i.text, d)
}
