package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/opinionsim/agent"
	"github.com/hupe1980/opinionsim/logging"
	"github.com/hupe1980/opinionsim/model"
)

// ErrInvalidPopulation is returned when the population is empty or contains
// an empty or duplicate agent name.
var ErrInvalidPopulation = errors.New("invalid population")

// previewRunes is the length of the stimulus preview in progress logs.
const previewRunes = 20

// Output is the serializable result of a run.
type Output struct {
	RawLogs      []agent.Reaction     `json:"raw_logs"`
	Trajectories map[string][]float64 `json:"trajectories"`
}

// Step describes one agent/stimulus pairing as seen by an observer.
type Step struct {
	StimulusIndex int
	Stimulus      string
	Agent         string
	Outcome       agent.Outcome
}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MemoryDecay is the fraction of the prior score retained per stimulus.
	MemoryDecay float64
	// ImpactScale maps the declared shift range onto the unit score range.
	ImpactScale float64
	// Timeout bounds each model call.
	Timeout time.Duration
	// Instruction overrides the agents' system prompt template.
	Instruction *agent.Instruction
	// OnStep, when set, is called after every pairing in invocation order.
	OnStep func(Step)
	// Logging services.
	Logger logging.Logger
}

// Driver runs simulations against a single injected model.
type Driver struct {
	llm         model.Model
	memoryDecay float64
	impactScale float64
	timeout     time.Duration
	instruction *agent.Instruction
	onStep      func(Step)
	logger      logging.Logger
}

// New constructs a Driver with optional overrides.
func New(llm model.Model, optFns ...func(o *Options)) *Driver {
	opts := Options{
		MemoryDecay: agent.DefaultMemoryDecay,
		ImpactScale: agent.DefaultImpactScale,
		Timeout:     60 * time.Second,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Driver{
		llm:         llm,
		memoryDecay: opts.MemoryDecay,
		impactScale: opts.ImpactScale,
		timeout:     opts.Timeout,
		instruction: opts.Instruction,
		onStep:      opts.OnStep,
		logger:      logging.ForComponent(opts.Logger, "simulation"),
	}
}

// Run instantiates one agent per persona and feeds every stimulus to every
// agent. Failures inside a pairing never abort the run. If ctx is done
// between pairings, Run returns the partial output together with ctx.Err().
func (d *Driver) Run(ctx context.Context, stimuli []string, population []agent.Persona) (*Output, error) {
	if err := ValidatePopulation(population); err != nil {
		return nil, err
	}

	agents := make([]*agent.Agent, len(population))
	out := &Output{
		RawLogs:      []agent.Reaction{},
		Trajectories: make(map[string][]float64, len(population)),
	}
	for i, p := range population {
		agents[i] = agent.New(p, d.llm, d.agentOptions)
		out.Trajectories[p.Name] = []float64{}
	}

	d.logger.Info("simulation.start", "agents", len(agents), "stimuli", len(stimuli), "model", d.llm.Info().Name)
	defer logging.StartTimer(d.logger, "simulation.run")()
	skipped := 0

	for i, stimulus := range stimuli {
		d.logger.Info("simulation.stimulus", "index", i+1, "total", len(stimuli), "preview", preview(stimulus))

		for _, a := range agents {
			if err := ctx.Err(); err != nil {
				d.logger.Warn("simulation.cancelled", "index", i+1, "error", err)
				return out, err
			}

			o := a.Perceive(ctx, stimulus)
			if o.OK() {
				out.RawLogs = append(out.RawLogs, *o.Reaction)
				out.Trajectories[a.Name()] = append(out.Trajectories[a.Name()], o.Reaction.CumulativeScore)
			} else {
				skipped++
			}

			if d.onStep != nil {
				d.onStep(Step{StimulusIndex: i, Stimulus: stimulus, Agent: a.Name(), Outcome: o})
			}
		}
	}

	d.logger.Info("simulation.complete", "reactions", len(out.RawLogs), "skipped", skipped)

	return out, nil
}

func (d *Driver) agentOptions(o *agent.Options) {
	o.MemoryDecay = d.memoryDecay
	o.ImpactScale = d.impactScale
	o.Timeout = d.timeout
	o.Logger = d.logger
	if d.instruction != nil {
		o.Instruction = *d.instruction
	}
}

// ValidatePopulation checks that the population is non-empty and that every
// name is non-empty and unique.
func ValidatePopulation(population []agent.Persona) error {
	if len(population) == 0 {
		return fmt.Errorf("%w: no agents", ErrInvalidPopulation)
	}
	seen := make(map[string]struct{}, len(population))
	for i, p := range population {
		if p.Name == "" {
			return fmt.Errorf("%w: agent %d has an empty name", ErrInvalidPopulation, i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: duplicate agent name %q", ErrInvalidPopulation, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "..."
}
