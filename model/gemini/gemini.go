// Package gemini provides a model wrapper for the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/hupe1980/tripsession/core"
	"github.com/hupe1980/tripsession/model"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	IncludeThoughts bool
	APIKey          string
	BaseURL         string
	HTTPClient      *http.Client
}

// Model wraps the Gemini GenerateContent API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a Gemini model using the official genai client.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 4096,
		IncludeThoughts: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		contents, err := toContents(req.History)
		if err != nil {
			errCh <- err
			return
		}
		config := m.buildConfig(req)

		if !req.Stream {
			resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, config)
			if err != nil {
				errCh <- fmt.Errorf("gemini api error: %w", err)
				return
			}
			final, err := fromResponse(resp)
			if err != nil {
				errCh <- err
				return
			}
			out <- final
			return
		}

		var (
			blocks []core.Block
			last   *genai.GenerateContentResponse
		)
		for chunk, err := range m.client.Models.GenerateContentStream(ctx, m.opts.Model, contents, config) {
			if err != nil {
				errCh <- fmt.Errorf("gemini stream error: %w", err)
				return
			}
			last = chunk
			if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
				continue
			}
			chunkBlocks, err := fromParts(chunk.Candidates[0].Content.Parts)
			if err != nil {
				errCh <- err
				return
			}
			blocks = append(blocks, chunkBlocks...)
			if text := (core.Turn{Blocks: chunkBlocks}).Text(""); text != "" {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- model.Response{Partial: true, Turn: core.NewModelText(text)}:
				}
			}
		}

		final := model.Response{Turn: core.Turn{Role: core.RoleModel, Blocks: mergeText(blocks)}, FinishReason: "stop"}
		if last != nil {
			final.ID = last.ResponseID
			final.Usage = usage(last.UsageMetadata)
			if len(last.Candidates) > 0 && last.Candidates[0].FinishReason != "" {
				final.FinishReason = string(last.Candidates[0].FinishReason)
			}
		}
		out <- final
	}()

	return out, errCh
}

func (m *Model) buildConfig(req model.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(m.opts.Temperature),
		MaxOutputTokens: m.opts.MaxOutputTokens,
	}
	if m.opts.IncludeThoughts {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}
	if req.Instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Function.Name,
				Description:          t.Function.Description,
				ParametersJsonSchema: t.Function.Parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return config
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini", SupportsTools: true}
}

// toContents converts session history into Gemini contents. Thought blocks
// are sent back as thought parts.
func toContents(history []core.Turn) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		parts := make([]*genai.Part, 0, len(t.Blocks))
		for _, b := range t.Blocks {
			switch blk := b.(type) {
			case core.TextBlock:
				parts = append(parts, &genai.Part{Text: blk.Text})
			case core.ThoughtBlock:
				parts = append(parts, &genai.Part{Text: blk.Text, Thought: true})
			case core.FunctionCallBlock:
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   blk.ID,
					Name: blk.Name,
					Args: model.PayloadObject(blk.Args),
				}})
			case core.FunctionResponseBlock:
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       blk.ID,
					Name:     blk.Name,
					Response: model.PayloadObject(blk.Response),
				}})
			default:
				return nil, fmt.Errorf("gemini: unsupported block %T", b)
			}
		}
		contents = append(contents, &genai.Content{Role: string(t.Role), Parts: parts})
	}
	return contents, nil
}

func fromResponse(resp *genai.GenerateContentResponse) (model.Response, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return model.Response{}, fmt.Errorf("gemini: response has no candidates")
	}
	cand := resp.Candidates[0]
	blocks, err := fromParts(cand.Content.Parts)
	if err != nil {
		return model.Response{}, err
	}
	finish := "stop"
	if cand.FinishReason != "" {
		finish = string(cand.FinishReason)
	}
	return model.Response{
		ID:           resp.ResponseID,
		Turn:         core.Turn{Role: core.RoleModel, Blocks: blocks},
		FinishReason: finish,
		Usage:        usage(resp.UsageMetadata),
	}, nil
}

func fromParts(parts []*genai.Part) ([]core.Block, error) {
	blocks := make([]core.Block, 0, len(parts))
	for _, p := range parts {
		switch {
		case p == nil:
		case p.FunctionCall != nil:
			args, err := marshalMap(p.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("gemini: function call %s args: %w", p.FunctionCall.Name, err)
			}
			blocks = append(blocks, core.FunctionCallBlock{ID: p.FunctionCall.ID, Name: p.FunctionCall.Name, Args: args})
		case p.FunctionResponse != nil:
			resp, err := marshalMap(p.FunctionResponse.Response)
			if err != nil {
				return nil, fmt.Errorf("gemini: function response %s: %w", p.FunctionResponse.Name, err)
			}
			blocks = append(blocks, core.FunctionResponseBlock{ID: p.FunctionResponse.ID, Name: p.FunctionResponse.Name, Response: resp})
		case p.Thought:
			blocks = append(blocks, core.ThoughtBlock{Text: p.Text})
		case p.Text != "":
			blocks = append(blocks, core.TextBlock{Text: p.Text})
		}
	}
	return blocks, nil
}

// mergeText joins adjacent streamed text (or thought) fragments.
func mergeText(blocks []core.Block) []core.Block {
	merged := make([]core.Block, 0, len(blocks))
	for _, b := range blocks {
		if len(merged) > 0 {
			switch cur := b.(type) {
			case core.TextBlock:
				if prev, ok := merged[len(merged)-1].(core.TextBlock); ok {
					merged[len(merged)-1] = core.TextBlock{Text: prev.Text + cur.Text}
					continue
				}
			case core.ThoughtBlock:
				if prev, ok := merged[len(merged)-1].(core.ThoughtBlock); ok {
					merged[len(merged)-1] = core.ThoughtBlock{Text: prev.Text + cur.Text}
					continue
				}
			case core.FunctionCallBlock, core.FunctionResponseBlock:
			}
		}
		merged = append(merged, b)
	}
	return merged
}

func marshalMap(m map[string]any) (json.RawMessage, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func usage(u *genai.GenerateContentResponseUsageMetadata) *model.TokenUsage {
	if u == nil {
		return nil
	}
	return &model.TokenUsage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}
