package testutil

import (
	"encoding/json"

	"github.com/hupe1980/tripsession/core"
)

// TurnBuilder provides a fluent helper for constructing turns in tests.
// Example:
//
//	turn := testutil.Model().Thought("hmm").Call("flights_between", `{"from":"MUC"}`).Build()
//
// Payload arguments are raw JSON strings; an empty string means no payload.
type TurnBuilder struct {
	role   core.Role
	blocks []core.Block
}

// User starts a user turn.
func User() *TurnBuilder { return &TurnBuilder{role: core.RoleUser} }

// Model starts a model turn.
func Model() *TurnBuilder { return &TurnBuilder{role: core.RoleModel} }

// Text appends a text block (chainable).
func (b *TurnBuilder) Text(t string) *TurnBuilder {
	b.blocks = append(b.blocks, core.TextBlock{Text: t})
	return b
}

// Thought appends a thought block (chainable).
func (b *TurnBuilder) Thought(t string) *TurnBuilder {
	b.blocks = append(b.blocks, core.ThoughtBlock{Text: t})
	return b
}

// Call appends a function call block (chainable).
func (b *TurnBuilder) Call(name, args string) *TurnBuilder {
	b.blocks = append(b.blocks, core.FunctionCallBlock{Name: name, Args: raw(args)})
	return b
}

// CallWithID appends a function call block carrying an id (chainable).
func (b *TurnBuilder) CallWithID(id, name, args string) *TurnBuilder {
	b.blocks = append(b.blocks, core.FunctionCallBlock{ID: id, Name: name, Args: raw(args)})
	return b
}

// Response appends a function response block (chainable).
func (b *TurnBuilder) Response(name, response string) *TurnBuilder {
	b.blocks = append(b.blocks, core.FunctionResponseBlock{Name: name, Response: raw(response)})
	return b
}

// ResponseWithID appends a function response block carrying an id (chainable).
func (b *TurnBuilder) ResponseWithID(id, name, response string) *TurnBuilder {
	b.blocks = append(b.blocks, core.FunctionResponseBlock{ID: id, Name: name, Response: raw(response)})
	return b
}

// Blocks returns the accumulated blocks.
func (b *TurnBuilder) Blocks() []core.Block { return append([]core.Block(nil), b.blocks...) }

// Build finalizes and returns the turn.
func (b *TurnBuilder) Build() core.Turn {
	return core.Turn{Role: b.role, Blocks: b.Blocks()}
}

// JSON returns the wire encoding of the turn, panicking on failure.
func (b *TurnBuilder) JSON() []byte {
	data, err := json.Marshal(b.Build())
	if err != nil {
		panic(err)
	}
	return data
}

func raw(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
