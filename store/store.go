package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/hupe1980/opinionsim/agent"
	"github.com/hupe1980/opinionsim/simulation"
)

// ErrNotFound is returned when no run exists for the given id.
var ErrNotFound = errors.New("run not found")

// Run is a completed (or cancelled) simulation together with its metadata.
type Run struct {
	ID           string             `json:"id"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
	Model        string             `json:"model"`
	StimuliCount int                `json:"stimuli_count"`
	MemoryDecay  float64            `json:"memory_decay"`
	ImpactScale  float64            `json:"impact_scale"`
	Agents       []string           `json:"agents"`
	Output       *simulation.Output `json:"output"`
}

// Summary is the list view of a stored run.
type Summary struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	Model        string    `json:"model"`
	StimuliCount int       `json:"stimuli_count"`
	Agents       int       `json:"agents"`
	Reactions    int       `json:"reactions"`
}

// Store persists runs.
type Store interface {
	// Save stores the run, replacing any run with the same id.
	Save(ctx context.Context, run Run) error
	// Get returns the run or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns summaries ordered by start time, newest first.
	List(ctx context.Context) ([]Summary, error)
}

func summarize(r *Run) Summary {
	s := Summary{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		Model:        r.Model,
		StimuliCount: r.StimuliCount,
		Agents:       len(r.Agents),
	}
	if r.Output != nil {
		s.Reactions = len(r.Output.RawLogs)
	}
	return s
}

// cloneRun returns a deep copy so callers cannot mutate stored state.
func cloneRun(r Run) Run {
	r.Agents = append([]string(nil), r.Agents...)
	if r.Output != nil {
		out := &simulation.Output{
			RawLogs:      append([]agent.Reaction{}, r.Output.RawLogs...),
			Trajectories: make(map[string][]float64, len(r.Output.Trajectories)),
		}
		for name, traj := range r.Output.Trajectories {
			out.Trajectories[name] = append([]float64{}, traj...)
		}
		r.Output = out
	}
	return r
}

// agentNames returns the population of a run, falling back to the sorted
// trajectory keys when Agents was not filled in.
func agentNames(r Run) []string {
	if len(r.Agents) > 0 || r.Output == nil {
		return r.Agents
	}
	names := make([]string, 0, len(r.Output.Trajectories))
	for name := range r.Output.Trajectories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
