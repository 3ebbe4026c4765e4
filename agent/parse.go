package agent

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoJSONObject is returned when a reply contains no brace-delimited span.
	ErrNoJSONObject = errors.New("no JSON object found in reply")
	// ErrInvalidJSON is returned when the extracted span is not a valid JSON object.
	ErrInvalidJSON = errors.New("reply is not a valid JSON object")
	// ErrEmptyReaction is returned for a reply that is an empty JSON object.
	ErrEmptyReaction = errors.New("reply is an empty JSON object")
	// ErrInvalidShift is returned when sentiment_shift is present but not a number.
	ErrInvalidShift = errors.New("sentiment_shift is not a number")
)

// braceSpan matches from the first '{' to the last '}' across newlines.
var braceSpan = regexp.MustCompile(`(?s)\{.*\}`)

// Judgment is a parsed model reply. Every field is optional; the accessors
// apply the per-field defaults at the read site.
type Judgment struct {
	doc gjson.Result
}

// ParseReaction recovers a JSON object from a model reply. The full text is
// tried first, then the first greedy brace-delimited span. A reply that is
// valid JSON but not an object is rejected without trying the span.
func ParseReaction(text string) (Judgment, error) {
	if trimmed := strings.TrimSpace(text); trimmed != "" && gjson.Valid(trimmed) {
		doc := gjson.Parse(trimmed)
		if !doc.IsObject() {
			return Judgment{}, ErrInvalidJSON
		}
		return Judgment{doc: doc}, nil
	}

	span := braceSpan.FindString(text)
	if span == "" {
		return Judgment{}, ErrNoJSONObject
	}

	doc, ok := parseObject(span)
	if !ok {
		return Judgment{}, ErrInvalidJSON
	}
	return Judgment{doc: doc}, nil
}

func parseObject(s string) (gjson.Result, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !gjson.Valid(s) {
		return gjson.Result{}, false
	}
	doc := gjson.Parse(s)
	if !doc.IsObject() {
		return gjson.Result{}, false
	}
	return doc, true
}

// Empty reports whether the object has no fields at all.
func (j Judgment) Empty() bool {
	empty := true
	j.doc.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return empty
}

// Has reports whether the named field is present.
func (j Judgment) Has(field string) bool { return j.field(field).Exists() }

// TopicCategory defaults to TopicOther.
func (j Judgment) TopicCategory() Topic { return ParseTopic(j.text("topic_category")) }

// ReactionText defaults to "".
func (j Judgment) ReactionText() string { return j.text("reaction") }

// SentimentShift defaults to 0 when the field is absent. Numeric strings
// such as "+3" are accepted. Any other present value (null, bool, text,
// non-finite) yields ErrInvalidShift.
func (j Judgment) SentimentShift() (float64, error) {
	r := j.field("sentiment_shift")
	if !r.Exists() {
		return 0, nil
	}
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidShift, r.Str)
		}
		v = f
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidShift, r.Raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidShift, r.Raw)
	}
	return v, nil
}

// Action defaults to ActionWait.
func (j Judgment) Action() Action { return ParseAction(j.text("action")) }

// Reason defaults to "".
func (j Judgment) Reason() string { return j.text("reason") }

// String returns the raw JSON of the recovered object.
func (j Judgment) String() string { return j.doc.Raw }

func (j Judgment) field(name string) gjson.Result { return j.doc.Get(name) }

func (j Judgment) text(name string) string {
	r := j.field(name)
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return r.Str
	case gjson.JSON:
		return r.Raw
	default:
		return fmt.Sprint(r.Value())
	}
}
