package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// wirePart mirrors the Gemini "Part" JSON shape exchanged with the host and
// the model-invocation service. Exactly one of Text, FunctionCall or
// FunctionResponse is set; Thought flags a text part as internal reasoning.
type wirePart struct {
	Text             *string               `json:"text,omitempty"`
	Thought          bool                  `json:"thought,omitempty"`
	FunctionCall     *wireFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *wireFunctionResponse `json:"functionResponse,omitempty"`
}

type wireFunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type wireFunctionResponse struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response,omitempty"`
}

type wireTurn struct {
	Role  Role       `json:"role"`
	Parts []wirePart `json:"parts"`
}

// ParseBlocks decodes a JSON array of parts into blocks. The array must be
// non-empty and every part must carry exactly one kind of content. Errors are
// returned as *ParseError.
func ParseBlocks(payload []byte) ([]Block, error) {
	var parts []wirePart
	if err := json.Unmarshal(payload, &parts); err != nil {
		return nil, newParseError("blocks", err)
	}
	if len(parts) == 0 {
		return nil, newParseError("blocks", errors.New("expected at least one part"))
	}
	blocks, err := decodeParts(parts)
	if err != nil {
		return nil, newParseError("blocks", err)
	}
	return blocks, nil
}

// ParseTurn decodes a full turn ({"role": ..., "parts": [...]}). Neither the
// role nor the presence of parts is validated here; see CheckTurn. Errors are
// returned as *ParseError.
func ParseTurn(payload []byte) (Turn, error) {
	var t Turn
	if err := json.Unmarshal(payload, &t); err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return Turn{}, pe
		}
		return Turn{}, newParseError("turn", err)
	}
	return t, nil
}

// EncodeBlocks renders blocks as a JSON array of parts, the inverse of ParseBlocks.
func EncodeBlocks(blocks []Block) ([]byte, error) {
	parts, err := encodeBlocks(blocks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(parts)
}

// MarshalJSON encodes the turn in the wire format.
func (t Turn) MarshalJSON() ([]byte, error) {
	parts, err := encodeBlocks(t.Blocks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireTurn{Role: t.Role, Parts: parts})
}

// UnmarshalJSON decodes the wire format into a turn.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var wt wireTurn
	if err := json.Unmarshal(data, &wt); err != nil {
		return newParseError("turn", err)
	}
	blocks, err := decodeParts(wt.Parts)
	if err != nil {
		return newParseError("turn", err)
	}
	t.Role = wt.Role
	t.Blocks = blocks
	return nil
}

func decodeParts(parts []wirePart) ([]Block, error) {
	blocks := make([]Block, 0, len(parts))
	for i, p := range parts {
		b, err := decodePart(p)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func decodePart(p wirePart) (Block, error) {
	kinds := 0
	if p.Text != nil {
		kinds++
	}
	if p.FunctionCall != nil {
		kinds++
	}
	if p.FunctionResponse != nil {
		kinds++
	}
	if kinds != 1 {
		return nil, fmt.Errorf("expected exactly one of text, functionCall or functionResponse, got %d", kinds)
	}

	switch {
	case p.Text != nil && p.Thought:
		return ThoughtBlock{Text: *p.Text}, nil
	case p.Text != nil:
		return TextBlock{Text: *p.Text}, nil
	case p.FunctionCall != nil:
		return normalizeBlock(FunctionCallBlock{ID: p.FunctionCall.ID, Name: p.FunctionCall.Name, Args: p.FunctionCall.Args})
	default:
		return normalizeBlock(FunctionResponseBlock{ID: p.FunctionResponse.ID, Name: p.FunctionResponse.Name, Response: p.FunctionResponse.Response})
	}
}

// normalizeBlock applies the rules every stored block obeys: text is valid
// UTF-8, function names are non-empty and payloads are compacted JSON.
func normalizeBlock(b Block) (Block, error) {
	switch blk := b.(type) {
	case TextBlock:
		blk.Text = validUTF8(blk.Text)
		return blk, nil
	case ThoughtBlock:
		blk.Text = validUTF8(blk.Text)
		return blk, nil
	case FunctionCallBlock:
		if blk.Name == "" {
			return nil, errors.New("functionCall name must not be empty")
		}
		args, err := normalizePayload(blk.Args)
		if err != nil {
			return nil, fmt.Errorf("functionCall args: %w", err)
		}
		blk.ID, blk.Name, blk.Args = validUTF8(blk.ID), validUTF8(blk.Name), args
		return blk, nil
	case FunctionResponseBlock:
		if blk.Name == "" {
			return nil, errors.New("functionResponse name must not be empty")
		}
		resp, err := normalizePayload(blk.Response)
		if err != nil {
			return nil, fmt.Errorf("functionResponse response: %w", err)
		}
		blk.ID, blk.Name, blk.Response = validUTF8(blk.ID), validUTF8(blk.Name), resp
		return blk, nil
	default:
		return nil, fmt.Errorf("unsupported block type %T", b)
	}
}

// validUTF8 replaces invalid byte sequences with U+FFFD so a stored string
// survives JSON encoding unchanged.
func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func encodeBlocks(blocks []Block) ([]wirePart, error) {
	parts := make([]wirePart, 0, len(blocks))
	for _, b := range blocks {
		switch blk := b.(type) {
		case TextBlock:
			text := blk.Text
			parts = append(parts, wirePart{Text: &text})
		case ThoughtBlock:
			text := blk.Text
			parts = append(parts, wirePart{Text: &text, Thought: true})
		case FunctionCallBlock:
			parts = append(parts, wirePart{FunctionCall: &wireFunctionCall{ID: blk.ID, Name: blk.Name, Args: blk.Args}})
		case FunctionResponseBlock:
			parts = append(parts, wirePart{FunctionResponse: &wireFunctionResponse{ID: blk.ID, Name: blk.Name, Response: blk.Response}})
		default:
			return nil, fmt.Errorf("unsupported block type %T", b)
		}
	}
	return parts, nil
}

// normalizePayload compacts a JSON payload so that equal values always have
// equal bytes. JSON null and empty input collapse to nil. Strings are
// HTML-escaped as json.Marshal writes them, so the result is unchanged by
// encoding.
func normalizePayload(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, bytes.ToValidUTF8(trimmed, []byte("\uFFFD"))); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	json.HTMLEscape(&buf, compact.Bytes())
	return json.RawMessage(buf.Bytes()), nil
}
