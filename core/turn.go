package core

import (
	"slices"
	"strings"
)

// Role attributes a turn to one side of the conversation.
type Role string

const (
	// RoleUser marks turns authored by the user (including tool results).
	RoleUser Role = "user"
	// RoleModel marks turns produced by the language model.
	RoleModel Role = "model"
)

// Valid reports whether r is one of the accepted roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleModel }

// Turn is one message in the conversation: a role plus ordered blocks.
// A turn is treated as immutable once appended to a Session.
type Turn struct {
	Role   Role
	Blocks []Block
}

// NewUserText creates a user turn with a single text block.
func NewUserText(text string) Turn {
	return Turn{Role: RoleUser, Blocks: []Block{TextBlock{Text: validUTF8(text)}}}
}

// NewModelText creates a model turn with a single text block.
func NewModelText(text string) Turn {
	return Turn{Role: RoleModel, Blocks: []Block{TextBlock{Text: validUTF8(text)}}}
}

// Text concatenates the text of every TextBlock in order, joined by sep.
// Thought blocks are always excluded and function blocks contribute nothing.
func (t Turn) Text(sep string) string {
	var texts []string
	for _, b := range t.Blocks {
		switch blk := b.(type) {
		case TextBlock:
			texts = append(texts, blk.Text)
		case ThoughtBlock, FunctionCallBlock, FunctionResponseBlock:
		}
	}
	return strings.Join(texts, sep)
}

// FunctionCalls returns the FunctionCall blocks of the turn preserving order.
func (t Turn) FunctionCalls() []FunctionCallBlock {
	var calls []FunctionCallBlock
	for _, b := range t.Blocks {
		if fc, ok := b.(FunctionCallBlock); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

// FunctionResponses returns the FunctionResponse blocks of the turn preserving order.
func (t Turn) FunctionResponses() []FunctionResponseBlock {
	var responses []FunctionResponseBlock
	for _, b := range t.Blocks {
		if fr, ok := b.(FunctionResponseBlock); ok {
			responses = append(responses, fr)
		}
	}
	return responses
}

// Thoughts returns the text of every ThoughtBlock in order.
func (t Turn) Thoughts() []string {
	var thoughts []string
	for _, b := range t.Blocks {
		if th, ok := b.(ThoughtBlock); ok {
			thoughts = append(thoughts, th.Text)
		}
	}
	return thoughts
}

// Clone returns a deep copy of the turn.
func (t Turn) Clone() Turn {
	blocks := make([]Block, len(t.Blocks))
	for i, b := range t.Blocks {
		blocks[i] = cloneBlock(b)
	}
	return Turn{Role: t.Role, Blocks: blocks}
}

// Equal reports value equality of two turns, comparing payloads byte-wise.
func (t Turn) Equal(other Turn) bool {
	if t.Role != other.Role {
		return false
	}
	return slices.EqualFunc(t.Blocks, other.Blocks, blockEqual)
}

func blockEqual(a, b Block) bool {
	switch x := a.(type) {
	case TextBlock:
		y, ok := b.(TextBlock)
		return ok && x == y
	case ThoughtBlock:
		y, ok := b.(ThoughtBlock)
		return ok && x == y
	case FunctionCallBlock:
		y, ok := b.(FunctionCallBlock)
		return ok && x.ID == y.ID && x.Name == y.Name && string(x.Args) == string(y.Args)
	case FunctionResponseBlock:
		y, ok := b.(FunctionResponseBlock)
		return ok && x.ID == y.ID && x.Name == y.Name && string(x.Response) == string(y.Response)
	default:
		return false
	}
}
