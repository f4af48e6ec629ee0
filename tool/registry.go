package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/tripsession/core"
	"github.com/hupe1980/tripsession/logging"
	"github.com/hupe1980/tripsession/model"
)

// ErrDuplicateTool is returned when registering a name twice.
var ErrDuplicateTool = errors.New("tool already registered")

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Logger logging.Logger
	// Timeout bounds a single tool call; zero means no limit.
	Timeout time.Duration
}

// Registry maps tool names to implementations and executes model function
// calls. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger logging.Logger
	opts   RegistryOptions
}

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Registry{tools: map[string]Tool{}, logger: logger, opts: opts}
}

// Register adds tools in order. Registering an existing name fails with
// ErrDuplicateTool and leaves the registry unchanged for that tool.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		if _, exists := r.tools[t.Name()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
		}
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Definitions returns model tool declarations in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute runs a single function call and always returns a response block
// answering it. Unknown tools, invalid arguments and failures are reported
// in-band as {"error": ..., "code": ...} so the model can react.
func (r *Registry) Execute(ctx context.Context, call core.FunctionCallBlock) core.FunctionResponseBlock {
	start := time.Now()
	result, err := r.call(ctx, call)
	dur := time.Since(start)

	if err != nil {
		r.logToolCall(call.Name, dur, err)
		return errorResponse(call, err)
	}

	resp, err := core.NewFunctionResponse(call.ID, call.Name, result)
	if err != nil {
		r.logToolCall(call.Name, dur, fmt.Errorf("result is not serializable: %w", err))
		return errorResponse(call, &ToolError{Tool: call.Name, Message: err.Error(), Code: CodeExecution})
	}
	r.logToolCall(call.Name, dur, nil)
	return resp
}

func (r *Registry) logToolCall(name string, dur time.Duration, err error) {
	if sl, ok := r.logger.(*logging.SessionLogger); ok {
		sl.LogToolCall(name, dur, err)
		return
	}
	if err != nil {
		r.logger.Warn("Tool execution failed", "tool_name", name, "duration", dur, "error", err.Error())
		return
	}
	r.logger.Info("Tool execution completed", "tool_name", name, "duration", dur)
}

// ExecuteAll runs calls concurrently and returns their responses in call order.
func (r *Registry) ExecuteAll(ctx context.Context, calls []core.FunctionCallBlock) []core.FunctionResponseBlock {
	out := make([]core.FunctionResponseBlock, len(calls))
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(i int, c core.FunctionCallBlock) {
			defer wg.Done()
			out[i] = r.Execute(ctx, c)
		}(i, c)
	}
	wg.Wait()
	return out
}

func (r *Registry) call(ctx context.Context, call core.FunctionCallBlock) (any, error) {
	t, ok := r.Get(call.Name)
	if !ok {
		return nil, NewToolError(call.Name, "no such tool", CodeUnknownTool)
	}

	args := map[string]any{}
	if len(call.Args) > 0 {
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return nil, NewToolError(call.Name, "arguments must be a JSON object", CodeInvalidInput)
		}
		if args == nil {
			args = map[string]any{}
		}
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	return t.Call(ctx, args)
}

func errorResponse(call core.FunctionCallBlock, err error) core.FunctionResponseBlock {
	payload := map[string]any{"error": err.Error()}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		payload["error"] = toolErr.Message
		payload["code"] = toolErr.Code
	}
	data, _ := json.Marshal(payload)
	return core.FunctionResponseBlock{ID: call.ID, Name: call.Name, Response: data}
}
