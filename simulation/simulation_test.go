package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/opinionsim/agent"
	"github.com/hupe1980/opinionsim/internal/testutil"
	"github.com/hupe1980/opinionsim/logging"
	"github.com/hupe1980/opinionsim/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var population = []agent.Persona{
	{Name: "Lin", Description: "A price-sensitive student."},
	{Name: "Zhao", Description: "A busy office worker."},
}

func TestRun_SkipsOnlyFailedPairings(t *testing.T) {
	// Invocation order: s1/Lin, s1/Zhao, s2/Lin, s2/Zhao, s3/Lin, s3/Zhao.
	llm := model.NewMockModel("mock").
		AddResponse(testutil.NewReaction().Shift(2).Action("A").JSON()).
		AddResponse(testutil.NewReaction().Shift(-1).JSON()).
		AddResponse("sorry, no JSON today").
		AddResponse(testutil.NewReaction().Shift(-1).JSON()).
		AddResponse(testutil.NewReaction().Shift(3).Topic("price").JSON()).
		AddResponse(testutil.NewReaction().Shift(0).Fenced())

	var steps []Step
	d := New(llm, func(o *Options) { o.OnStep = func(s Step) { steps = append(steps, s) } })

	out, err := d.Run(context.Background(), []string{"s1", "s2", "s3"}, population)
	require.NoError(t, err)

	assert.Len(t, out.Trajectories["Lin"], 2)
	assert.Len(t, out.Trajectories["Zhao"], 3)
	require.Len(t, out.RawLogs, 5)

	names := make([]string, len(out.RawLogs))
	for i, r := range out.RawLogs {
		names[i] = r.AgentName
	}
	assert.Equal(t, []string{"Lin", "Zhao", "Zhao", "Lin", "Zhao"}, names)

	// Lin: 0.2, then skip, then 0.2*0.8+0.3 = 0.46
	assert.Equal(t, []float64{0.2, 0.46}, out.Trajectories["Lin"])
	// Zhao: -0.1, -0.18, -0.144
	assert.Equal(t, []float64{-0.1, -0.18, -0.14}, out.Trajectories["Zhao"])

	require.Len(t, steps, 6)
	assert.Equal(t, 1, steps[2].StimulusIndex)
	assert.Equal(t, "Lin", steps[2].Agent)
	require.NotNil(t, steps[2].Outcome.Skip)
	assert.Equal(t, agent.SkipParse, steps[2].Outcome.Skip.Reason)
}

func TestRun_TrajectoryMatchesReactionCount(t *testing.T) {
	llm := model.NewMockModel("mock").
		AddError(errors.New("timeout")).
		AddResponse(testutil.NewReaction().Shift(1).JSON()).
		AddResponse(`{}`).
		SetFallback(testutil.NewReaction().Shift(1).JSON())

	out, err := New(llm).Run(context.Background(), []string{"a", "b", "c", "d"}, population)
	require.NoError(t, err)

	counts := map[string]int{}
	for _, r := range out.RawLogs {
		counts[r.AgentName]++
	}
	for _, p := range population {
		assert.Len(t, out.Trajectories[p.Name], counts[p.Name], p.Name)
	}
	assert.Len(t, out.RawLogs, 6)
}

func TestRun_AgentsAreIndependent(t *testing.T) {
	// Zhao always fails; Lin's trajectory must equal a solo run.
	duo := model.NewMockModel("mock").
		AddResponse(testutil.NewReaction().Shift(4).JSON()).AddResponse("x").
		AddResponse(testutil.NewReaction().Shift(-2).JSON()).AddResponse("x")
	solo := model.NewMockModel("mock").
		AddResponse(testutil.NewReaction().Shift(4).JSON()).
		AddResponse(testutil.NewReaction().Shift(-2).JSON())

	duoOut, err := New(duo).Run(context.Background(), []string{"a", "b"}, population)
	require.NoError(t, err)
	soloOut, err := New(solo).Run(context.Background(), []string{"a", "b"}, population[:1])
	require.NoError(t, err)

	assert.Equal(t, soloOut.Trajectories["Lin"], duoOut.Trajectories["Lin"])
	assert.Empty(t, duoOut.Trajectories["Zhao"])
}

func TestRun_InvalidPopulation(t *testing.T) {
	llm := model.NewMockModel("mock")
	tests := map[string][]agent.Persona{
		"empty":     nil,
		"no name":   {{Name: ""}},
		"duplicate": {{Name: "Lin"}, {Name: "Lin"}},
	}
	for name, pop := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(llm).Run(context.Background(), []string{"a"}, pop)
			assert.ErrorIs(t, err, ErrInvalidPopulation)
		})
	}
	assert.Empty(t, llm.Requests())
}

func TestRun_NoStimuli(t *testing.T) {
	out, err := New(model.NewMockModel("mock")).Run(context.Background(), nil, population)
	require.NoError(t, err)
	assert.Empty(t, out.RawLogs)
	assert.Equal(t, map[string][]float64{"Lin": {}, "Zhao": {}}, out.Trajectories)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := model.NewMockModel("mock").SetFallback(testutil.NewReaction().Shift(1).JSON())

	d := New(llm, func(o *Options) {
		o.OnStep = func(s Step) {
			if s.StimulusIndex == 1 && s.Agent == "Lin" {
				cancel()
			}
		}
	})

	out, err := d.Run(ctx, []string{"a", "b", "c"}, population)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, out)
	assert.Len(t, out.RawLogs, 3)
}

func TestRun_CustomTunables(t *testing.T) {
	llm := model.NewMockModel("mock").SetFallback(testutil.NewReaction().Shift(5).JSON())
	d := New(llm, func(o *Options) {
		o.MemoryDecay = 0.5
		o.ImpactScale = 5
	})

	out, err := d.Run(context.Background(), []string{"a", "b"}, population[:1])
	require.NoError(t, err)
	// 0*0.5 + 1 = 1; 1*0.5 + 1 = 1.5 -> 1
	assert.Equal(t, []float64{1, 1}, out.Trajectories["Lin"])
}

func TestOutput_JSONShape(t *testing.T) {
	out := &Output{
		RawLogs:      []agent.Reaction{{AgentName: "Lin", TopicCategory: agent.TopicPrice, Action: agent.ActionWait, CumulativeScore: 0.2}},
		Trajectories: map[string][]float64{"Lin": {0.2}},
	}

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Len(t, generic, 2)
	assert.Contains(t, generic, "raw_logs")
	assert.Contains(t, generic, "trajectories")

	logs := generic["raw_logs"].([]any)
	entry := logs[0].(map[string]any)
	for _, key := range []string{"agent_name", "topic_category", "reaction", "sentiment_shift", "action", "reason", "cumulative_score"} {
		assert.Contains(t, entry, key)
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	assert.Equal(t, "配送太慢了配送太慢了配送太慢了配送太慢了...", preview("配送太慢了配送太慢了配送太慢了配送太慢了还有更多"))
}

func TestRun_LargerPopulation(t *testing.T) {
	llm := model.NewMockModel("mock").SetFallback(testutil.NewReaction().Shift(1).JSON())
	pop := testutil.Population(5)

	out, err := New(llm).Run(context.Background(), []string{"a", "b", "c"}, pop)
	require.NoError(t, err)

	assert.Len(t, llm.Requests(), 15)
	assert.Len(t, out.RawLogs, 15)
	for _, p := range pop {
		assert.Equal(t, []float64{0.1, 0.18, 0.24}, out.Trajectories[p.Name], p.Name)
	}
	assert.Equal(t, "agent-1", out.RawLogs[0].AgentName)
	assert.Equal(t, "agent-5", out.RawLogs[4].AgentName)
}

func TestRun_LogsRunDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: &buf})
	llm := model.NewMockModel("mock").SetFallback(testutil.NewReaction().Shift(1).JSON())

	_, err := New(llm, func(o *Options) { o.Logger = logger }).Run(context.Background(), []string{"s1"}, population)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, "Operation completed", last["msg"])
	assert.Equal(t, "simulation.run", last["operation"])
	assert.Equal(t, "simulation", last["component"])
	assert.Contains(t, last, "duration")

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "simulation.start", first["msg"])
	assert.Equal(t, "simulation", first["component"])
}
