package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlocks(t *testing.T) {
	blocks, err := ParseBlocks([]byte(`[
		{"text": "plan", "thought": true},
		{"text": "Here you go"},
		{"functionCall": {"id": "c1", "name": "get_hotel_by_coordinates", "args": {"lat": 38.7, "lng": -9.1}}},
		{"functionResponse": {"name": "trains_between", "response": {"trains": []}}, "extra": 1}
	]`))
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	assert.Equal(t, ThoughtBlock{Text: "plan"}, blocks[0])
	assert.Equal(t, TextBlock{Text: "Here you go"}, blocks[1])

	call, ok := blocks[2].(FunctionCallBlock)
	require.True(t, ok)
	assert.Equal(t, "c1", call.ID)
	assert.Equal(t, `{"lat":38.7,"lng":-9.1}`, string(call.Args))

	resp, ok := blocks[3].(FunctionResponseBlock)
	require.True(t, ok)
	assert.Equal(t, "trains_between", resp.Name)
	assert.Equal(t, `{"trains":[]}`, string(resp.Response))
}

func TestParseBlocks_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":       `not json`,
		"object":         `{"text":"x"}`,
		"empty":          `[]`,
		"no kind":        `[{"thought":true}]`,
		"two kinds":      `[{"text":"x","functionCall":{"name":"a"}}]`,
		"empty name":     `[{"functionCall":{"name":""}}]`,
		"response name":  `[{"functionResponse":{"response":{}}}]`,
		"trailing bytes": `[{"text":"x"}] junk`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBlocks([]byte(in))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "blocks", pe.Input)
		})
	}
}

func TestParseBlocks_NullPayload(t *testing.T) {
	blocks, err := ParseBlocks([]byte(`[{"functionCall":{"name":"get_about_place","args":null}}]`))
	require.NoError(t, err)
	assert.Nil(t, blocks[0].(FunctionCallBlock).Args)
}

func TestTurnJSON(t *testing.T) {
	in := `{"role":"model","parts":[{"text":"a","thought":true},{"functionCall":{"id":"1","name":"f","args":{"x":1}}}]}`
	turn, err := ParseTurn([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, RoleModel, turn.Role)

	out, err := turn.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestParseTurn_Errors(t *testing.T) {
	_, err := ParseTurn([]byte(`{"role":"user","parts":"x"}`))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "turn", pe.Input)
}

func TestEncodeBlocks(t *testing.T) {
	data, err := EncodeBlocks([]Block{TextBlock{Text: ""}, FunctionResponseBlock{Name: "f"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":""},{"functionResponse":{"name":"f"}}]`, string(data))

	blocks, err := ParseBlocks(data)
	require.NoError(t, err)
	assert.True(t, Turn{Blocks: blocks}.Equal(Turn{Blocks: []Block{TextBlock{}, FunctionResponseBlock{Name: "f"}}}))
}
