package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tripsession/core"
	"github.com/hupe1980/tripsession/internal/testutil"
)

func callTurn(names ...string) core.Turn {
	blocks := make([]core.Block, 0, len(names)+1)
	blocks = append(blocks, core.TextBlock{Text: "working on it"})
	for _, n := range names {
		blocks = append(blocks, core.FunctionCallBlock{Name: n})
	}
	return core.Turn{Role: core.RoleModel, Blocks: blocks}
}

func TestLabeler_DedupAndSort(t *testing.T) {
	l := NewLabeler(map[string]string{"A": "x", "B": "y", "C": "z"}, "")

	assert.Equal(t, []string{"x", "y", "z"}, l.ForTurn(callTurn("A", "B", "A", "C")))
	assert.Equal(t, []string{"x", "y", "z"}, l.ForTurn(callTurn("C", "A", "B")))
}

func TestLabeler_UnknownName(t *testing.T) {
	labels := DefaultLabeler.ForTurn(callTurn("teleport", "trains_between", "warp"))
	assert.Equal(t, []string{"Magic!", "Searching trains"}, labels)
}

func TestLabeler_NoCalls(t *testing.T) {
	assert.Empty(t, DefaultLabeler.ForTurn(core.NewModelText("done")))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Searching flights", Label("flights_between"))
	assert.Equal(t, "Reading about a hotel", Label("get_hotel_description"))
	assert.Equal(t, Fallback, Label(""))
}

func TestNewLabeler_CopiesTable(t *testing.T) {
	table := map[string]string{"a": "Alpha"}
	l := NewLabeler(table, "?")
	table["a"] = "Changed"

	assert.Equal(t, "Alpha", l.Label("a"))
	assert.Equal(t, "?", l.Label("b"))
}

func TestLabeler_Pending(t *testing.T) {
	s, err := core.NewSession(10)
	require.NoError(t, err)

	_, err = DefaultLabeler.Pending(s)
	assert.ErrorIs(t, err, core.ErrEmptySession)
	_, err = DefaultLabeler.PendingJoined(s)
	assert.ErrorIs(t, err, core.ErrEmptySession)

	s.Ask("Plan Lisbon")
	require.NoError(t, s.ReplyBlocks(callTurn("get_hotel_by_coordinates", "flights_between", "flights_between").Blocks...))

	labels, err := DefaultLabeler.Pending(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Searching flights", "Searching hotels"}, labels)

	joined, err := DefaultLabeler.PendingJoined(s)
	require.NoError(t, err)
	assert.Equal(t, "Searching flights,Searching hotels", joined)
}

func TestLabeler_PendingAfterToolResults(t *testing.T) {
	s := testutil.NewSessionBuilder(4).
		Ask("Trains to Porto?").
		Turn(testutil.Model().Thought("check trains").Call("trains_between", `{"from":"LIS","to":"OPO"}`).Build()).
		Turn(testutil.User().Response("trains_between", `{"trains":[]}`).Build()).
		MustBuild()

	labels, err := DefaultLabeler.Pending(s)
	require.NoError(t, err)
	assert.Empty(t, labels)

	joined, err := DefaultLabeler.PendingJoined(s)
	require.NoError(t, err)
	assert.Equal(t, "", joined)
}
