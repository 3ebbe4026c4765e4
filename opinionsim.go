// Package opinionsim provides a high-level façade over the simulation driver
// and its services (run store, artifacts and logging) for simulating how a
// population of LLM-backed consumer personas reacts to a stream of comments.
// Most applications interact with this package by:
//  1. Creating a Simulator via New() with a model.Model (optionally overriding
//     the default in‑memory stores)
//  2. Calling Run with the stimuli and the population
//  3. Reading the returned store.Run or fetching it later from the Store
package opinionsim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/opinionsim/agent"
	"github.com/hupe1980/opinionsim/artifact"
	"github.com/hupe1980/opinionsim/export"
	"github.com/hupe1980/opinionsim/internal/util"
	"github.com/hupe1980/opinionsim/logging"
	"github.com/hupe1980/opinionsim/model"
	"github.com/hupe1980/opinionsim/simulation"
	"github.com/hupe1980/opinionsim/store"
)

// ResultArtifact is the artifact name the result JSON is saved under.
const ResultArtifact = "simulation_result.json"

// Options configures the Simulator instance.
type Options struct {
	// MemoryDecay is the fraction of the prior score retained per stimulus.
	MemoryDecay float64
	// ImpactScale divides the declared sentiment shift.
	ImpactScale float64
	// Timeout bounds each model call.
	Timeout time.Duration
	// Instruction overrides the agents' system prompt template.
	Instruction *agent.Instruction
	// OnStep observes every agent/stimulus pairing.
	OnStep func(simulation.Step)

	// Stores (defaults to in-memory implementations if not provided)
	Store         store.Store
	ArtifactStore artifact.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// Simulator is the high-level façade aggregating the driver and services.
type Simulator struct {
	opts Options
	llm  model.Model
}

// New creates a new Simulator with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(llm model.Model, optFns ...func(o *Options)) *Simulator {
	opts := Options{
		MemoryDecay:   agent.DefaultMemoryDecay,
		ImpactScale:   agent.DefaultImpactScale,
		Timeout:       60 * time.Second,
		Store:         store.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
		Now:           time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Simulator{opts: opts, llm: llm}
}

// Store returns the run store in use.
func (s *Simulator) Store() store.Store { return s.opts.Store }

// Artifacts returns the artifact store in use.
func (s *Simulator) Artifacts() artifact.Store { return s.opts.ArtifactStore }

// Run executes a simulation, records it in the Store and saves the result
// JSON as an artifact scoped to the run id. A cancelled run is still
// recorded with its partial output and returned together with ctx.Err().
func (s *Simulator) Run(ctx context.Context, stimuli []string, population []agent.Persona) (*store.Run, error) {
	id := util.NewID()
	logger := s.opts.Logger
	if sl, ok := logger.(*logging.SimLogger); ok {
		logger = sl.WithRun(id)
	}

	driver := simulation.New(s.llm, func(o *simulation.Options) {
		o.MemoryDecay = s.opts.MemoryDecay
		o.ImpactScale = s.opts.ImpactScale
		o.Timeout = s.opts.Timeout
		o.Instruction = s.opts.Instruction
		o.OnStep = s.opts.OnStep
		o.Logger = logger
	})

	started := s.opts.Now()
	out, runErr := driver.Run(ctx, stimuli, population)
	if out == nil {
		return nil, runErr
	}

	run := store.Run{
		ID:           id,
		StartedAt:    started,
		FinishedAt:   s.opts.Now(),
		StimuliCount: len(stimuli),
		MemoryDecay:  s.opts.MemoryDecay,
		ImpactScale:  s.opts.ImpactScale,
		Agents:       names(population),
		Output:       out,
	}
	if s.llm != nil {
		run.Model = s.llm.Info().Name
	}

	if err := s.opts.Store.Save(context.WithoutCancel(ctx), run); err != nil {
		return &run, errors.Join(runErr, fmt.Errorf("saving run %s: %w", id, err))
	}

	var buf bytes.Buffer
	if err := export.WriteResult(&buf, out); err != nil {
		return &run, errors.Join(runErr, err)
	}
	if err := s.opts.ArtifactStore.Save(id, ResultArtifact, buf.Bytes()); err != nil {
		return &run, errors.Join(runErr, fmt.Errorf("saving result artifact: %w", err))
	}

	logger.Info("run.saved", "run_id", id, "reactions", len(out.RawLogs))

	return &run, runErr
}

func names(population []agent.Persona) []string {
	out := make([]string, len(population))
	for i, p := range population {
		out[i] = p.Name
	}
	return out
}
