package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tripsession/core"
)

func TestTurnBuilder(t *testing.T) {
	turn := Model().Thought("hmm").Text("On it").Call("flights_between", `{"from":"MUC"}`).Build()
	assert.Equal(t, core.RoleModel, turn.Role)
	require.Len(t, turn.Blocks, 3)
	assert.Equal(t, "On it", turn.Text(""))
	assert.Equal(t, []string{"hmm"}, turn.Thoughts())

	parsed, err := core.ParseTurn(User().Response("flights_between", `{"ok":true}`).JSON())
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(parsed.FunctionResponses()[0].Response))
}

func TestSessionBuilder(t *testing.T) {
	s := NewSessionBuilder(2).Ask("a").Reply("b").Ask("c").MustBuild()
	assert.Equal(t, 2, s.Len())
	text, err := s.DisplayText("")
	require.NoError(t, err)
	assert.Equal(t, "c", text)

	_, err = NewSessionBuilder(0).Build()
	require.ErrorIs(t, err, core.ErrInvalidWindow)
}
