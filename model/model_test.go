package model

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tripsession/core"
)

func TestMockModel_Scripted(t *testing.T) {
	m := NewMockModel("mock")
	m.AddTurn(core.Turn{Role: core.RoleModel, Blocks: []core.Block{core.FunctionCallBlock{Name: "flights_between"}}})
	m.AddText("All set.")

	req := Request{History: []core.Turn{core.NewUserText("go")}}

	first, err := Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", first.FinishReason)

	second, err := Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, "All set.", second.Turn.Text(""))

	echo, err := Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: go", echo.Turn.Text(""))

	assert.Len(t, m.Requests(), 3)
}

func TestMockModel_Streaming(t *testing.T) {
	m := NewMockModel("mock")
	m.AddText("hey")

	respCh, errCh := m.Generate(context.Background(), Request{History: []core.Turn{core.NewUserText("hi")}, Stream: true})
	var partials string
	var final Response
	for r := range respCh {
		if r.Partial {
			partials += r.Turn.Text("")
			continue
		}
		final = r
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, "hey", partials)
	assert.Equal(t, "hey", final.Turn.Text(""))
}

func TestMockModel_NoHistory(t *testing.T) {
	_, err := Collect(context.Background(), NewMockModel("mock"), Request{})
	assert.Error(t, err)
}

func TestAssignCallIDs(t *testing.T) {
	history := []core.Turn{
		core.NewUserText("plan"),
		{Role: core.RoleModel, Blocks: []core.Block{
			core.FunctionCallBlock{Name: "a"},
			core.FunctionCallBlock{Name: "b", ID: "fixed"},
			core.FunctionCallBlock{Name: "a"},
		}},
		{Role: core.RoleUser, Blocks: []core.Block{
			core.FunctionResponseBlock{Name: "a"},
			core.FunctionResponseBlock{Name: "b"},
			core.FunctionResponseBlock{Name: "a"},
		}},
	}

	out := AssignCallIDs(history)
	calls := out[1].FunctionCalls()
	resps := out[2].FunctionResponses()

	assert.Equal(t, "call_1_0", calls[0].ID)
	assert.Equal(t, "fixed", calls[1].ID)
	assert.Equal(t, "call_1_2", calls[2].ID)
	assert.Equal(t, []string{"call_1_0", "fixed", "call_1_2"}, []string{resps[0].ID, resps[1].ID, resps[2].ID})

	// Input is left untouched.
	assert.Empty(t, history[1].FunctionCalls()[0].ID)
}

func TestPayloadHelpers(t *testing.T) {
	assert.Equal(t, map[string]any{}, PayloadObject(nil))
	assert.Equal(t, map[string]any{"a": float64(1)}, PayloadObject(json.RawMessage(`{"a":1}`)))
	assert.Equal(t, map[string]any{"value": "x"}, PayloadObject(json.RawMessage(`"x"`)))

	assert.Equal(t, "{}", PayloadString(nil))
	assert.True(t, IsErrorPayload(json.RawMessage(`{"error":"boom"}`)))
	assert.False(t, IsErrorPayload(json.RawMessage(`["error"]`)))
	assert.False(t, IsErrorPayload(nil))
}
