package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hupe1980/tripsession/core"
	"github.com/hupe1980/tripsession/model"
)

func TestToContents(t *testing.T) {
	history := []core.Turn{
		core.NewUserText("Trains from Lisbon to Porto?"),
		{Role: core.RoleModel, Blocks: []core.Block{
			core.ThoughtBlock{Text: "look up trains"},
			core.FunctionCallBlock{Name: "trains_between", Args: json.RawMessage(`{"from":"LIS","to":"OPO"}`)},
		}},
		{Role: core.RoleUser, Blocks: []core.Block{
			core.FunctionResponseBlock{Name: "trains_between", Response: json.RawMessage(`[1,2]`)},
		}},
	}

	contents, err := toContents(history)
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "Trains from Lisbon to Porto?", contents[0].Parts[0].Text)

	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.True(t, contents[1].Parts[0].Thought)
	assert.Equal(t, "trains_between", contents[1].Parts[1].FunctionCall.Name)
	assert.Equal(t, "LIS", contents[1].Parts[1].FunctionCall.Args["from"])

	assert.Equal(t, []any{float64(1), float64(2)}, contents[2].Parts[0].FunctionResponse.Response["value"])
}

func TestFromParts(t *testing.T) {
	blocks, err := fromParts([]*genai.Part{
		{Text: "hmm", Thought: true},
		{Text: "Here are hotels"},
		{FunctionCall: &genai.FunctionCall{Name: "get_hotel_details", Args: map[string]any{"id": "h1"}}},
		nil,
		{Text: ""},
	})
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, core.ThoughtBlock{Text: "hmm"}, blocks[0])
	assert.Equal(t, core.TextBlock{Text: "Here are hotels"}, blocks[1])
	assert.JSONEq(t, `{"id":"h1"}`, string(blocks[2].(core.FunctionCallBlock).Args))
}

func TestMergeText(t *testing.T) {
	merged := mergeText([]core.Block{
		core.ThoughtBlock{Text: "a"}, core.ThoughtBlock{Text: "b"},
		core.TextBlock{Text: "Hel"}, core.TextBlock{Text: "lo"},
		core.FunctionCallBlock{Name: "f"},
		core.TextBlock{Text: "!"},
	})
	assert.Equal(t, []core.Block{
		core.ThoughtBlock{Text: "ab"},
		core.TextBlock{Text: "Hello"},
		core.FunctionCallBlock{Name: "f"},
		core.TextBlock{Text: "!"},
	}, merged)
}

func TestModel_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{
				"content": {"role": "model", "parts": [
					{"text": "Checking flights", "thought": true},
					{"functionCall": {"name": "flights_between", "args": {"from": "BER"}}}
				]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5, "totalTokenCount": 17}
		}`)
	}))
	defer srv.Close()

	m, err := NewModel(context.Background(), func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL
		o.HTTPClient = srv.Client()
	})
	require.NoError(t, err)

	resp, err := model.Collect(context.Background(), m, model.Request{
		Instructions: "You are a travel planner.",
		History:      []core.Turn{core.NewUserText("Fly me to Lisbon")},
		Tools: []model.ToolDefinition{{Type: "function", Function: model.FunctionDefinition{
			Name: "flights_between", Parameters: map[string]any{"type": "object"},
		}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "STOP", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 17, resp.Usage.TotalTokens)
	calls := resp.Turn.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "flights_between", calls[0].Name)
	assert.Equal(t, []string{"Checking flights"}, resp.Turn.Thoughts())

	assert.Contains(t, body, "contents")
	assert.Contains(t, body, "systemInstruction")
	assert.Contains(t, body, "tools")
}

func TestModel_Info(t *testing.T) {
	m, err := NewModel(context.Background(), func(o *Options) { o.APIKey = "k"; o.Model = "gemini-2.5-pro" })
	require.NoError(t, err)
	assert.Equal(t, model.Info{Name: "gemini-2.5-pro", Provider: "gemini", SupportsTools: true}, m.Info())
}
