package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/opinionsim/agent"
)

// ReactionBuilder provides a fluent helper for constructing model replies in tests.
// Example:
//
//	reply := NewReaction().Topic("price").Shift(-3).Action("B").JSON()
//
// Only fields that were set are emitted, so defaults can be exercised.
type ReactionBuilder struct {
	fields map[string]any
	order  []string
}

// NewReaction creates an empty builder.
func NewReaction() *ReactionBuilder { return &ReactionBuilder{fields: map[string]any{}} }

func (b *ReactionBuilder) set(k string, v any) *ReactionBuilder {
	if _, ok := b.fields[k]; !ok {
		b.order = append(b.order, k)
	}
	b.fields[k] = v
	return b
}

// Topic sets topic_category (chainable).
func (b *ReactionBuilder) Topic(t string) *ReactionBuilder { return b.set("topic_category", t) }

// Text sets the reaction text (chainable).
func (b *ReactionBuilder) Text(t string) *ReactionBuilder { return b.set("reaction", t) }

// Shift sets sentiment_shift (chainable).
func (b *ReactionBuilder) Shift(v float64) *ReactionBuilder { return b.set("sentiment_shift", v) }

// Action sets the action code (chainable).
func (b *ReactionBuilder) Action(a string) *ReactionBuilder { return b.set("action", a) }

// Reason sets the reason (chainable).
func (b *ReactionBuilder) Reason(r string) *ReactionBuilder { return b.set("reason", r) }

// Field sets an arbitrary field (chainable).
func (b *ReactionBuilder) Field(k string, v any) *ReactionBuilder { return b.set(k, v) }

// JSON renders the object with fields in insertion order.
func (b *ReactionBuilder) JSON() string {
	out := []byte{'{'}
	for i, k := range b.order {
		if i > 0 {
			out = append(out, ',')
		}
		key, _ := json.Marshal(k)
		val, _ := json.Marshal(b.fields[k])
		out = append(out, key...)
		out = append(out, ':')
		out = append(out, val...)
	}
	return string(append(out, '}'))
}

// Fenced renders the object inside a Markdown code fence with chatter around it.
func (b *ReactionBuilder) Fenced() string {
	return fmt.Sprintf("Here is my reaction:\n```json\n%s\n```\nThanks!", b.JSON())
}

// Population builds n personas named agent-1..agent-n.
func Population(n int) []agent.Persona {
	out := make([]agent.Persona, n)
	for i := range out {
		out[i] = agent.Persona{
			Name:        fmt.Sprintf("agent-%d", i+1),
			Description: fmt.Sprintf("Synthetic persona number %d.", i+1),
		}
	}
	return out
}
