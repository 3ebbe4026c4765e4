package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/opinionsim/core"
	"github.com/hupe1980/opinionsim/logging"
	"github.com/hupe1980/opinionsim/model"
)

// Options configures an Agent instance.
//
// Use functional options with New to override defaults. A MemoryDecay
// outside (0,1) or a non-positive ImpactScale falls back to the default.
type Options struct {
	MemoryDecay float64
	ImpactScale float64
	// Timeout bounds each model call; zero disables the per-call deadline.
	Timeout     time.Duration
	Instruction Instruction
	UserMessage Instruction
	Logger      logging.Logger
}

// Agent is one persona with an evolving opinion score. An Agent is not safe
// for concurrent use: its score update depends on the previous call.
type Agent struct {
	persona     Persona
	llm         model.Model
	memoryDecay float64
	impactScale float64
	timeout     time.Duration
	instruction Instruction
	userMessage Instruction
	logger      logging.Logger
	score       float64
}

// New creates an agent with a neutral score of 0.
func New(persona Persona, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MemoryDecay: DefaultMemoryDecay,
		ImpactScale: DefaultImpactScale,
		Timeout:     60 * time.Second,
		Instruction: NewInstructionFromText(DefaultInstruction),
		UserMessage: NewInstructionFromText(DefaultUserMessage),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MemoryDecay <= 0 || opts.MemoryDecay >= 1 {
		opts.MemoryDecay = DefaultMemoryDecay
	}
	if opts.ImpactScale <= 0 {
		opts.ImpactScale = DefaultImpactScale
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	opts.Logger = logging.ForAgent(logging.ForComponent(opts.Logger, "agent"), persona.Name)

	return &Agent{
		persona:     persona,
		llm:         llm,
		memoryDecay: opts.MemoryDecay,
		impactScale: opts.ImpactScale,
		timeout:     opts.Timeout,
		instruction: opts.Instruction,
		userMessage: opts.UserMessage,
		logger:      opts.Logger,
	}
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.persona.Name }

// Persona returns the agent's persona configuration.
func (a *Agent) Persona() Persona { return a.persona }

// Score returns the current, unrounded opinion score.
func (a *Agent) Score() float64 { return a.score }

// Perceive lets the agent read one stimulus. On success the score is updated
// and the returned Outcome carries the Reaction; otherwise it carries a Skip
// and the score is unchanged.
func (a *Agent) Perceive(ctx context.Context, stimulus string) Outcome {
	req, err := a.buildRequest(stimulus)
	if err != nil {
		a.logger.Error("agent.perceive.prompt_error", "error", err)
		return a.skip(SkipTransport, err, "")
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, usage, err := model.Collect(callCtx, a.llm, req)
	tokens := 0
	if usage != nil {
		tokens = usage.TotalTokens
	}
	logging.LLMCall(a.logger, a.llm.Info().Name, tokens, time.Since(start), err)
	if err != nil {
		return a.skip(SkipTransport, err, "")
	}

	j, err := ParseReaction(text)
	if err != nil {
		a.logger.Debug("agent.perceive.unparseable", "error", err)
		return a.skip(SkipParse, err, text)
	}
	if j.Empty() {
		return a.skip(SkipEmpty, ErrEmptyReaction, text)
	}

	shift, err := j.SentimentShift()
	if err != nil {
		a.logger.Debug("agent.perceive.invalid_shift", "error", err)
		return a.skip(SkipParse, err, text)
	}
	a.score = NextScore(a.score, shift, a.memoryDecay, a.impactScale)

	return Outcome{Reaction: &Reaction{
		AgentName:       a.Name(),
		TopicCategory:   j.TopicCategory(),
		Reaction:        j.ReactionText(),
		SentimentShift:  shift,
		Action:          j.Action(),
		Reason:          j.Reason(),
		CumulativeScore: Round2(a.score),
	}}
}

func (a *Agent) buildRequest(stimulus string) (model.Request, error) {
	data := PromptData{
		Name:     a.persona.Name,
		Persona:  a.persona.Description,
		Score:    a.score,
		Stimulus: stimulus,
	}

	instructions, err := a.instruction.Resolve(data)
	if err != nil {
		return model.Request{}, fmt.Errorf("resolve instruction: %w", err)
	}

	user, err := a.userMessage.Resolve(data)
	if err != nil {
		return model.Request{}, fmt.Errorf("resolve user message: %w", err)
	}

	return model.Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewUserContent(user)},
		JSONMode:     true,
	}, nil
}

func (a *Agent) skip(reason SkipReason, cause error, raw string) Outcome {
	return Outcome{Skip: &Skip{Agent: a.Name(), Reason: reason, Cause: cause, Raw: raw}}
}
