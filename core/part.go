package core

import "encoding/json"

// Block represents a single typed unit of turn content. Concrete block types
// implement the unexported isBlock marker enabling a closed set; consumers are
// expected to switch exhaustively over TextBlock, ThoughtBlock,
// FunctionCallBlock and FunctionResponseBlock.
type Block interface{ isBlock() }

// TextBlock is plain user-visible text.
type TextBlock struct {
	Text string
}

// isBlock implements the Block interface for TextBlock.
func (TextBlock) isBlock() {}

// ThoughtBlock is model-internal reasoning. It never contributes to display text.
type ThoughtBlock struct {
	Text string
}

// isBlock implements the Block interface for ThoughtBlock.
func (ThoughtBlock) isBlock() {}

// FunctionCallBlock describes a tool/function invocation requested by the model.
type FunctionCallBlock struct {
	ID   string          // Optional stable id pairing the call with its response
	Name string          // Tool / function name, never empty
	Args json.RawMessage // Opaque compacted JSON arguments (nil when absent)
}

// isBlock implements the Block interface for FunctionCallBlock.
func (FunctionCallBlock) isBlock() {}

// FunctionResponseBlock carries the outcome of a previously requested call.
type FunctionResponseBlock struct {
	ID       string          // Matches the originating FunctionCallBlock ID (optional)
	Name     string          // Function name, never empty
	Response json.RawMessage // Opaque compacted JSON result (nil when absent)
}

// isBlock implements the Block interface for FunctionResponseBlock.
func (FunctionResponseBlock) isBlock() {}

// NewFunctionCall marshals args into a FunctionCallBlock. A nil args value
// yields a call without arguments.
func NewFunctionCall(name string, args any) (FunctionCallBlock, error) {
	raw, err := marshalPayload(args)
	if err != nil {
		return FunctionCallBlock{}, err
	}
	return FunctionCallBlock{Name: name, Args: raw}, nil
}

// NewFunctionResponse marshals result into a FunctionResponseBlock.
func NewFunctionResponse(id, name string, result any) (FunctionResponseBlock, error) {
	raw, err := marshalPayload(result)
	if err != nil {
		return FunctionResponseBlock{}, err
	}
	return FunctionResponseBlock{ID: id, Name: name, Response: raw}, nil
}

func marshalPayload(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return normalizePayload(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return normalizePayload(b)
}

// cloneBlock returns a copy of b that shares no memory with the original.
func cloneBlock(b Block) Block {
	switch blk := b.(type) {
	case TextBlock, ThoughtBlock:
		return blk
	case FunctionCallBlock:
		blk.Args = cloneRaw(blk.Args)
		return blk
	case FunctionResponseBlock:
		blk.Response = cloneRaw(blk.Response)
		return blk
	default:
		return b
	}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
