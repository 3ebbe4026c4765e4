package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/opinionsim/core"
)

// ErrEmptyResponse is returned by Collect when the model finished without
// producing any text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string         `json:"instructions"` // System instructions for the model
	Contents     []core.Content `json:"contents"`     // Conversation turns converted to provider messages
	JSONMode     bool           `json:"json_mode"`    // Ask the provider to answer with a single JSON object
	Stream       bool           `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"` // Indicates if this is a partial response
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains the channels returned by m.Generate and returns the final
// response text. Partial chunks are concatenated when no final chunk carries
// text. The call blocks until both channels are closed or ctx is done.
func Collect(ctx context.Context, m Model, req Request) (string, *TokenUsage, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		partial strings.Builder
		final   string
		usage   *TokenUsage
		sawDone bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Usage != nil {
				usage = r.Usage
			}
			if r.Partial {
				partial.WriteString(r.Content.Text())
				continue
			}
			final = r.Content.Text()
			sawDone = true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return "", nil, err
			}
		}
	}

	if !sawDone || final == "" {
		final = partial.String()
	}
	if strings.TrimSpace(final) == "" {
		return "", usage, ErrEmptyResponse
	}
	return final, usage, nil
}

// MockModel is a lightweight scripted Model useful for tests & examples.
// Each Generate call consumes the next scripted reply in order; once the
// script is exhausted the fallback reply is used.
type MockModel struct {
	info     Info
	mu       sync.Mutex
	script   []scripted
	fallback scripted
	requests []Request
}

type scripted struct {
	text string
	err  error
}

// NewMockModel constructs a MockModel with an empty script.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:     Info{Name: name, Provider: "mock"},
		fallback: scripted{text: `{}`},
	}
}

// AddResponse queues a canned completion text.
func (m *MockModel) AddResponse(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{text: text})
	return m
}

// AddError queues a transport failure.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{err: err})
	return m
}

// SetFallback sets the reply returned once the script is exhausted.
func (m *MockModel) SetFallback(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = scripted{text: text}
	return m
}

// Requests returns a snapshot of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockModel) next(req Request) scripted {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		return m.fallback
	}
	s := m.script[0]
	m.script = m.script[1:]
	return s
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	s := m.next(req)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		if s.err != nil {
			errCh <- s.err
			return
		}
		if req.Stream {
			for _, r := range s.text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: core.NewAssistantContent(string(r))}:
				}
			}
		}
		respCh <- Response{
			Partial:      false,
			Content:      core.NewAssistantContent(s.text),
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
