package evaluation

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hupe1980/opinionsim/agent"
	"github.com/hupe1980/opinionsim/simulation"
)

// AgentReport summarizes one agent's run.
type AgentReport struct {
	Name         string               `json:"name"`
	Processed    int                  `json:"processed"`
	Skipped      int                  `json:"skipped"`
	FinalScore   float64              `json:"final_score"`
	Min          float64              `json:"min"`
	Max          float64              `json:"max"`
	Mean         float64              `json:"mean"`
	ActionCounts map[agent.Action]int `json:"action_counts"`
	TopicCounts  map[agent.Topic]int  `json:"topic_counts"`
}

// Report is the evaluation of a whole run.
type Report struct {
	Stimuli      int                  `json:"stimuli"`
	Reactions    int                  `json:"reactions"`
	Agents       []AgentReport        `json:"agents"`
	ActionCounts map[agent.Action]int `json:"action_counts"`
	TopicCounts  map[agent.Topic]int  `json:"topic_counts"`
}

// Evaluate builds a Report. stimuliCount is the number of stimuli the run
// was given; when it is zero or smaller than the longest trajectory, the
// longest trajectory length is used instead.
func Evaluate(out *simulation.Output, stimuliCount int) Report {
	rep := Report{
		Agents:       []AgentReport{},
		ActionCounts: map[agent.Action]int{},
		TopicCounts:  map[agent.Topic]int{},
	}
	stimuliCount = max(stimuliCount, 0)
	if out == nil {
		rep.Stimuli = stimuliCount
		return rep
	}

	for _, traj := range out.Trajectories {
		stimuliCount = max(stimuliCount, len(traj))
	}
	rep.Stimuli = stimuliCount
	rep.Reactions = len(out.RawLogs)

	byName := make(map[string]*AgentReport, len(out.Trajectories))
	names := make([]string, 0, len(out.Trajectories))
	for name, traj := range out.Trajectories {
		ar := &AgentReport{
			Name:         name,
			Processed:    len(traj),
			Skipped:      stimuliCount - len(traj),
			ActionCounts: map[agent.Action]int{},
			TopicCounts:  map[agent.Topic]int{},
		}
		if len(traj) > 0 {
			ar.FinalScore = traj[len(traj)-1]
			ar.Min, ar.Max = traj[0], traj[0]
			var sum float64
			for _, v := range traj {
				ar.Min = min(ar.Min, v)
				ar.Max = max(ar.Max, v)
				sum += v
			}
			ar.Mean = agent.Round2(sum / float64(len(traj)))
		}
		byName[name] = ar
		names = append(names, name)
	}
	sort.Strings(names)

	for _, r := range out.RawLogs {
		rep.ActionCounts[r.Action]++
		rep.TopicCounts[r.TopicCategory]++
		if ar, ok := byName[r.AgentName]; ok {
			ar.ActionCounts[r.Action]++
			ar.TopicCounts[r.TopicCategory]++
		}
	}

	for _, name := range names {
		rep.Agents = append(rep.Agents, *byName[name])
	}
	return rep
}

// Format writes a human readable table of the report.
func Format(w io.Writer, rep Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "stimuli: %d  reactions: %d\n\n", rep.Stimuli, rep.Reactions)
	fmt.Fprintf(&b, "%-16s %9s %7s %6s %6s %6s %6s\n", "AGENT", "PROCESSED", "SKIPPED", "FINAL", "MIN", "MAX", "MEAN")
	for _, a := range rep.Agents {
		fmt.Fprintf(&b, "%-16s %9d %7d %6.2f %6.2f %6.2f %6.2f\n",
			a.Name, a.Processed, a.Skipped, a.FinalScore, a.Min, a.Max, a.Mean)
	}

	b.WriteString("\ntopics:")
	for _, t := range agent.Topics {
		fmt.Fprintf(&b, " %s=%d", t, rep.TopicCounts[t])
	}
	b.WriteString("\nactions:")
	for _, a := range agent.Actions {
		fmt.Fprintf(&b, " %s=%d", a, rep.ActionCounts[a])
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
