package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/tripsession/core"
	"github.com/hupe1980/tripsession/logging"
	"github.com/hupe1980/tripsession/model"
	"github.com/hupe1980/tripsession/session"
	"github.com/hupe1980/tripsession/status"
	"github.com/hupe1980/tripsession/tool"
)

// PlanningStatus is reported while the model is working and no tool call is pending.
const PlanningStatus = "Planning…"

// Step is delivered to the Observer after every change the user could see:
// a streamed text chunk, a model turn, or a batch of tool results.
type Step struct {
	RunID   string
	Partial bool      // streamed chunk; Text holds only the delta
	Labels  []string  // pending status labels of the latest turn
	Status  string    // Labels joined, or PlanningStatus when none are pending
	Text    string    // display text of the latest turn
	Turn    core.Turn // the turn just appended (zero for partial steps)
	Time    time.Time
}

// Observer receives progress while a prompt is being answered.
type Observer func(Step)

// Result summarizes a finished prompt.
type Result struct {
	RunID      string
	Text       string
	ModelCalls int
	Usage      model.TokenUsage
}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Instruction is resolved before every model call and sent as the system prompt.
	Instruction Instruction
	// MaxModelCalls limits the number of model calls per prompt (0 = unlimited).
	MaxModelCalls int
	// EnableStreaming requests partial text chunks from the model.
	EnableStreaming bool
	// Separator joins text blocks of the display text.
	Separator string
	// Tools executes function calls requested by the model.
	Tools *tool.Registry
	// Labeler maps pending function calls to status labels.
	Labeler *status.Labeler
	// SessionStore persists sessions for RunStored.
	SessionStore core.SessionStore
	// Observer receives progress steps.
	Observer Observer
	// Logging services.
	Logger logging.Logger
}

// Runner answers user prompts by alternating model calls and tool execution
// on a session until the model replies without function calls. Public
// methods are safe for concurrent use as long as each session is driven by
// one run at a time.
type Runner struct {
	model model.Model
	opts  Options

	logger logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Runner with optional overrides.
func New(m model.Model, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxModelCalls:   10,
		EnableStreaming: false,
		Separator:       "\n",
		Tools:           tool.NewRegistry(),
		Labeler:         status.DefaultLabeler,
		SessionStore:    session.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		model:      m,
		opts:       opts,
		logger:     opts.Logger,
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Run appends prompt as a user turn and drives s until the model answers
// without function calls. Tool failures are fed back to the model as error
// responses; model failures and the call limit end the run with an error,
// leaving every turn appended so far in s.
func (r *Runner) Run(ctx context.Context, s *core.Session, prompt string) (Result, error) {
	runID := session.NewID()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.activeRuns, runID)
		r.mu.Unlock()
	}()

	s.Ask(prompt)
	r.notify(runID, s, false, "")

	limiter := NewModelLimiter(r.opts.MaxModelCalls)
	res := Result{RunID: runID}

	for {
		if err := limiter.Increment(); err != nil {
			return r.finish(res, limiter, s), err
		}

		start := time.Now()
		resp, err := r.generate(ctx, runID, s)
		r.logModelCall(start, resp.Usage, err)
		if err != nil {
			return r.finish(res, limiter, s), fmt.Errorf("model call failed: %w", err)
		}
		if resp.Usage != nil {
			res.Usage.PromptTokens += resp.Usage.PromptTokens
			res.Usage.CompletionTokens += resp.Usage.CompletionTokens
			res.Usage.TotalTokens += resp.Usage.TotalTokens
		}

		if err := s.ReplyBlocks(resp.Turn.Blocks...); err != nil {
			return r.finish(res, limiter, s), fmt.Errorf("invalid model reply: %w", err)
		}
		r.notify(runID, s, false, "")

		calls := resp.Turn.FunctionCalls()
		if len(calls) == 0 {
			return r.finish(res, limiter, s), nil
		}

		responses := r.opts.Tools.ExecuteAll(ctx, calls)
		if err := ctx.Err(); err != nil {
			return r.finish(res, limiter, s), err
		}

		blocks := make([]core.Block, len(responses))
		for i, fr := range responses {
			blocks[i] = fr
		}
		if err := s.AskBlocks(blocks...); err != nil {
			return r.finish(res, limiter, s), fmt.Errorf("invalid tool responses: %w", err)
		}
		r.notify(runID, s, false, "")
	}
}

// RunStored loads the session id from the store, runs prompt and saves the
// result even when the run fails part way. A missing session is created with
// the given window.
func (r *Runner) RunStored(ctx context.Context, id string, window int, prompt string) (Result, error) {
	s, err := r.opts.SessionStore.Load(ctx, id, func(o *core.SessionOptions) { o.Logger = r.logger })
	if errors.Is(err, core.ErrSessionNotFound) {
		s, err = core.NewSession(window, func(o *core.SessionOptions) { o.Logger = r.logger })
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to get session: %w", err)
	}

	res, runErr := r.Run(ctx, s, prompt)
	if err := r.opts.SessionStore.Save(context.WithoutCancel(ctx), id, s); err != nil {
		return res, errors.Join(runErr, fmt.Errorf("failed to save session: %w", err))
	}
	return res, runErr
}

// Cancel cancels a running prompt by run ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

func (r *Runner) generate(ctx context.Context, runID string, s *core.Session) (model.Response, error) {
	instructions, err := r.opts.Instruction.Resolve(s)
	if err != nil {
		return model.Response{}, fmt.Errorf("failed to resolve instruction: %w", err)
	}

	req := model.Request{
		Instructions: instructions,
		History:      s.Turns(),
		Tools:        r.opts.Tools.Definitions(),
		Stream:       r.opts.EnableStreaming,
	}

	respCh, errCh := r.model.Generate(ctx, req)
	var final *model.Response
	for resp := range respCh {
		if resp.Partial {
			if delta := resp.Turn.Text(""); delta != "" {
				r.notify(runID, s, true, delta)
			}
			continue
		}
		resp := resp
		final = &resp
	}
	if err := <-errCh; err != nil {
		return model.Response{}, err
	}
	if final == nil {
		return model.Response{}, fmt.Errorf("%s: no final response", r.model.Info().Provider)
	}
	return *final, nil
}

func (r *Runner) notify(runID string, s *core.Session, partial bool, delta string) {
	if r.opts.Observer == nil {
		return
	}

	step := Step{RunID: runID, Partial: partial, Time: time.Now()}
	if partial {
		step.Text = delta
		step.Status = PlanningStatus
		r.opts.Observer(step)
		return
	}

	last, err := s.LastTurn()
	if err != nil {
		return
	}
	step.Turn = last
	step.Text = last.Text(r.opts.Separator)
	step.Labels = r.opts.Labeler.ForTurn(last)
	step.Status = PlanningStatus
	if len(step.Labels) > 0 {
		step.Status = strings.Join(step.Labels, status.Separator)
	}
	r.opts.Observer(step)
}

func (r *Runner) finish(res Result, limiter *ModelLimiter, s *core.Session) Result {
	res.ModelCalls = limiter.Count()
	if text, err := s.DisplayText(r.opts.Separator); err == nil {
		res.Text = text
	}
	return res
}

func (r *Runner) logModelCall(start time.Time, usage *model.TokenUsage, err error) {
	tokens := 0
	if usage != nil {
		tokens = usage.TotalTokens
	}
	if sl, ok := r.logger.(*logging.SessionLogger); ok {
		sl.LogModelCall(r.model.Info().Name, tokens, time.Since(start), err)
		return
	}
	if err != nil {
		r.logger.Error("Model call failed", "model", r.model.Info().Name, "error", err.Error())
		return
	}
	r.logger.Debug("Model call completed", "model", r.model.Info().Name, "tokens", tokens, "duration", time.Since(start))
}
