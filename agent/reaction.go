package agent

import (
	"fmt"
	"strings"
)

// Topic is the category a stimulus was judged to be about.
type Topic string

// Recognized topic categories.
const (
	TopicPrice          Topic = "price"
	TopicTimeliness     Topic = "timeliness"
	TopicService        Topic = "service"
	TopicDiscrimination Topic = "discrimination"
	TopicOther          Topic = "other"
)

// Topics lists every topic in display order.
var Topics = []Topic{TopicPrice, TopicTimeliness, TopicService, TopicDiscrimination, TopicOther}

var topicAliases = map[string]Topic{
	"price":          TopicPrice,
	"pricing":        TopicPrice,
	"价格":             TopicPrice,
	"timeliness":     TopicTimeliness,
	"delivery":       TopicTimeliness,
	"时效":             TopicTimeliness,
	"service":        TopicService,
	"服务":             TopicService,
	"discrimination": TopicDiscrimination,
	"杀熟":             TopicDiscrimination,
	"other":          TopicOther,
	"其他":             TopicOther,
}

// ParseTopic maps a model supplied category onto a Topic. Unknown or empty
// values map to TopicOther.
func ParseTopic(s string) Topic {
	if t, ok := topicAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	return TopicOther
}

// Action is the behavioral decision an agent reports after a stimulus.
type Action string

// Recognized actions. The single letter codes A, B and C used in prompts map
// to switch, wait and hold respectively.
const (
	ActionSwitch Action = "switch"
	ActionWait   Action = "wait"
	ActionHold   Action = "hold"
)

// Actions lists every action in display order.
var Actions = []Action{ActionSwitch, ActionWait, ActionHold}

var actionAliases = map[string]Action{
	"a":      ActionSwitch,
	"switch": ActionSwitch,
	"b":      ActionWait,
	"wait":   ActionWait,
	"c":      ActionHold,
	"hold":   ActionHold,
}

// ParseAction maps a model supplied action code onto an Action. Unknown or
// empty values map to ActionWait.
func ParseAction(s string) Action {
	if a, ok := actionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a
	}
	return ActionWait
}

// Reaction is the structured result of one agent/stimulus pairing.
type Reaction struct {
	AgentName       string  `json:"agent_name"`
	TopicCategory   Topic   `json:"topic_category"`
	Reaction        string  `json:"reaction"`
	SentimentShift  float64 `json:"sentiment_shift"` // raw, before normalization
	Action          Action  `json:"action"`
	Reason          string  `json:"reason"`
	CumulativeScore float64 `json:"cumulative_score"` // post-update, rounded to 2 decimals
}

// SkipReason classifies why a pairing produced no Reaction.
type SkipReason string

const (
	// SkipTransport means the model call itself failed.
	SkipTransport SkipReason = "transport"
	// SkipParse means no JSON object could be recovered from the reply.
	SkipParse SkipReason = "parse"
	// SkipEmpty means the reply was an empty JSON object.
	SkipEmpty SkipReason = "empty"
)

// Skip records a pairing that produced no Reaction.
type Skip struct {
	Agent  string
	Reason SkipReason
	Cause  error
	Raw    string // model reply, when one was received
}

// Error implements error so a Skip can be logged or wrapped directly.
func (s *Skip) Error() string {
	return fmt.Sprintf("agent %s skipped stimulus (%s): %v", s.Agent, s.Reason, s.Cause)
}

// Unwrap exposes the underlying cause.
func (s *Skip) Unwrap() error { return s.Cause }

// Outcome carries exactly one of Reaction or Skip.
type Outcome struct {
	Reaction *Reaction
	Skip     *Skip
}

// OK reports whether the outcome carries a Reaction.
func (o Outcome) OK() bool { return o.Reaction != nil }
