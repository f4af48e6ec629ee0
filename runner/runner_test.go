package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tripsession/core"
	"github.com/hupe1980/tripsession/internal/testutil"
	"github.com/hupe1980/tripsession/model"
	"github.com/hupe1980/tripsession/session"
	"github.com/hupe1980/tripsession/tool"
)

func newSession(t *testing.T, window int) *core.Session {
	t.Helper()
	s, err := core.NewSession(window)
	require.NoError(t, err)
	return s
}

func flightsRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(tool.NewFunctionTool(
		"flights_between", "Search flights",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"from": map[string]any{"type": "string"}},
			"required":   []string{"from"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"flights": []string{args["from"].(string) + "-LIS"}}, nil
		},
	)))
	return reg
}

func callTurn(name, args string) core.Turn {
	return testutil.Model().Call(name, args).Build()
}

func TestRunner_TextReply(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddText("Lisbon is lovely.")

	r := New(m, func(o *Options) { o.Instruction = NewInstructionFromText("You plan trips.") })
	s := newSession(t, 10)

	res, err := r.Run(context.Background(), s, "Where should I go?")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon is lovely.", res.Text)
	assert.Equal(t, 1, res.ModelCalls)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, s.Len())

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "You plan trips.", reqs[0].Instructions)
	require.Len(t, reqs[0].History, 1)
	assert.Equal(t, "Where should I go?", reqs[0].History[0].Text(""))
}

func TestRunner_ToolLoop(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddTurn(callTurn("flights_between", `{"from":"MUC"}`))
	m.AddText("I found one flight.")

	var statuses []string
	r := New(m, func(o *Options) {
		o.Tools = flightsRegistry(t)
		o.Observer = func(step Step) { statuses = append(statuses, step.Status) }
	})
	s := newSession(t, 10)

	res, err := r.Run(context.Background(), s, "Fly me to Lisbon")
	require.NoError(t, err)
	assert.Equal(t, "I found one flight.", res.Text)
	assert.Equal(t, 2, res.ModelCalls)

	turns := s.Turns()
	require.Len(t, turns, 4)
	responses := turns[2].FunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, core.RoleUser, turns[2].Role)
	assert.JSONEq(t, `{"flights":["MUC-LIS"]}`, string(responses[0].Response))

	assert.Equal(t, []string{PlanningStatus, "Searching flights", PlanningStatus, PlanningStatus}, statuses)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "flights_between", reqs[0].Tools[0].Function.Name)
	assert.Len(t, reqs[1].History, 3)
}

func TestRunner_UnknownToolIsReportedToModel(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddTurn(callTurn("teleport", ""))
	m.AddText("Sorry, I cannot teleport.")

	r := New(m)
	s := newSession(t, 10)

	_, err := r.Run(context.Background(), s, "Beam me up")
	require.NoError(t, err)

	turns := s.Turns()
	require.Len(t, turns, 4)
	assert.True(t, model.IsErrorPayload(turns[2].FunctionResponses()[0].Response))
}

func TestRunner_MaxModelCalls(t *testing.T) {
	m := model.NewMockModel("mock")
	for range 3 {
		m.AddTurn(callTurn("flights_between", `{"from":"MUC"}`))
	}

	r := New(m, func(o *Options) {
		o.Tools = flightsRegistry(t)
		o.MaxModelCalls = 2
	})
	s := newSession(t, 20)

	_, err := r.Run(context.Background(), s, "Loop forever")
	require.ErrorIs(t, err, ErrMaxModelCalls)
	assert.Len(t, m.Requests(), 2)
	assert.Equal(t, 5, s.Len())
}

func TestRunner_Streaming(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddText("Hola")

	var b strings.Builder
	partials := 0
	r := New(m, func(o *Options) {
		o.EnableStreaming = true
		o.Observer = func(step Step) {
			if step.Partial {
				partials++
				b.WriteString(step.Text)
			}
		}
	})

	_, err := r.Run(context.Background(), newSession(t, 4), "Say hi")
	require.NoError(t, err)
	assert.Equal(t, 4, partials)
	assert.Equal(t, "Hola", b.String())
}

type failingModel struct{}

func (failingModel) Generate(context.Context, model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, 1)
	close(respCh)
	errCh <- errors.New("quota exceeded")
	close(errCh)
	return respCh, errCh
}

func (failingModel) Info() model.Info { return model.Info{Name: "failing", Provider: "test"} }

func TestRunner_ModelError(t *testing.T) {
	r := New(failingModel{})
	s := newSession(t, 4)

	_, err := r.Run(context.Background(), s, "Hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, s.Len())
}

func TestRunner_InvalidModelReply(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddTurn(core.Turn{Role: core.RoleModel, Blocks: []core.Block{core.FunctionCallBlock{Name: "flights_between", Args: []byte("{bad")}}})

	r := New(m, func(o *Options) { o.Tools = flightsRegistry(t) })
	s := newSession(t, 4)

	_, err := r.Run(context.Background(), s, "Fly me to Lisbon")
	require.Error(t, err)
	assert.True(t, core.IsParseError(err), "got %v", err)
	assert.Equal(t, 1, s.Len())

	data, err := s.Serialize()
	require.NoError(t, err)
	_, err = core.Deserialize(data)
	require.NoError(t, err)
}

func TestRunner_RunStored(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddText("First answer")
	m.AddText("Second answer")

	store := session.NewInMemoryStore()
	r := New(m, func(o *Options) { o.SessionStore = store })
	ctx := context.Background()

	_, err := r.RunStored(ctx, "trip-1", 3, "First")
	require.NoError(t, err)
	res, err := r.RunStored(ctx, "trip-1", 3, "Second")
	require.NoError(t, err)
	assert.Equal(t, "Second answer", res.Text)

	s, err := store.Load(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.Window())
}

func TestRunner_Cancel(t *testing.T) {
	r := New(model.NewMockModel("mock"))
	require.Error(t, r.Cancel("unknown"))
}

func TestModelLimiter(t *testing.T) {
	l := NewModelLimiter(2)
	require.NoError(t, l.Increment())
	assert.Equal(t, 1, l.Remaining())
	require.NoError(t, l.Increment())
	require.ErrorIs(t, l.Increment(), ErrMaxModelCalls)
	assert.Equal(t, 3, l.Count())

	unlimited := NewModelLimiter(0)
	for range 5 {
		require.NoError(t, unlimited.Increment())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}
