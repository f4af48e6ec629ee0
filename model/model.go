package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/tripsession/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request is the provider independent model input: the retained session
// history plus system instructions and the callable tools.
type Request struct {
	Instructions string           `json:"instructions"`
	History      []core.Turn      `json:"history"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial chunks
// carry streamed text only; the final chunk carries the complete model turn
// ready for Session.ReplyBlocks.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Turn         core.Turn   `json:"turn"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "gemini", "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the runner to drive generation.
// Exactly one final (non-partial) Response is emitted on success; errors are
// delivered on the error channel. Both channels are closed when done.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a Generate call and returns the final response.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)
	var final *Response
	for resp := range respCh {
		if !resp.Partial {
			r := resp
			final = &r
		}
	}
	if err := <-errCh; err != nil {
		return Response{}, err
	}
	if final == nil {
		return Response{}, fmt.Errorf("%s: no final response", m.Info().Provider)
	}
	return *final, nil
}

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// Scripted turns are returned in order; once exhausted it echoes the last
// user text.
type MockModel struct {
	info     Info
	mu       sync.Mutex
	script   []core.Turn
	requests []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock", SupportsTools: true}}
}

// AddTurn queues a model turn to be returned by the next Generate call.
func (m *MockModel) AddTurn(t core.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, t.Clone())
}

// AddText queues a plain text reply.
func (m *MockModel) AddText(text string) { m.AddTurn(core.NewModelText(text)) }

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

func (m *MockModel) next(req Request) (core.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.script) > 0 {
		t := m.script[0]
		m.script = m.script[1:]
		return t, nil
	}
	if len(req.History) == 0 {
		return core.Turn{}, fmt.Errorf("no history provided")
	}
	return core.NewModelText("Mock response to: " + req.History[len(req.History)-1].Text("")), nil
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		turn, err := m.next(req)
		if err != nil {
			errCh <- err
			return
		}

		if req.Stream {
			for _, r := range turn.Text("") {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Turn: core.NewModelText(string(r))}:
				}
			}
		}

		finish := "stop"
		if len(turn.FunctionCalls()) > 0 {
			finish = "tool_calls"
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Turn: turn, FinishReason: finish}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// AssignCallIDs returns a copy of history in which every function call has an
// ID and every function response carries the ID of the call it answers.
// Providers that pair tool calls and results by ID (Anthropic, OpenAI) use it
// on history produced by ID-less backends. Missing call IDs are synthesized
// from the turn and block position; a response without ID takes the ID of the
// first unanswered call with the same name in the preceding model turn.
func AssignCallIDs(history []core.Turn) []core.Turn {
	out := make([]core.Turn, len(history))
	var pending []core.FunctionCallBlock
	for ti, turn := range history {
		t := turn.Clone()
		var calls []core.FunctionCallBlock
		for bi, b := range t.Blocks {
			switch blk := b.(type) {
			case core.FunctionCallBlock:
				if blk.ID == "" {
					blk.ID = fmt.Sprintf("call_%d_%d", ti, bi)
				}
				t.Blocks[bi] = blk
				calls = append(calls, blk)
			case core.FunctionResponseBlock:
				if blk.ID == "" {
					for pi, c := range pending {
						if c.Name == blk.Name {
							blk.ID = c.ID
							pending = append(pending[:pi], pending[pi+1:]...)
							break
						}
					}
				}
				if blk.ID == "" {
					blk.ID = fmt.Sprintf("call_%d_%d", ti, bi)
				}
				t.Blocks[bi] = blk
			case core.TextBlock, core.ThoughtBlock:
			}
		}
		if t.Role == core.RoleModel {
			pending = calls
		} else {
			pending = nil
		}
		out[ti] = t
	}
	return out
}

// PayloadObject decodes a function payload into a JSON object. Non-object
// payloads are wrapped as {"value": ...}; an empty payload yields an empty map.
func PayloadObject(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		return obj
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]any{"value": string(raw)}
	}
	return map[string]any{"value": v}
}

// PayloadString renders a function payload as text for providers whose tool
// results are plain strings.
func PayloadString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

// IsErrorPayload reports whether a function response payload is an object
// with a top-level "error" key.
func IsErrorPayload(raw json.RawMessage) bool {
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	_, ok := obj["error"]
	return ok
}
