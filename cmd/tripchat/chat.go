package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tripsession/render"
	"github.com/hupe1980/tripsession/runner"
	"github.com/hupe1980/tripsession/session"
	"github.com/hupe1980/tripsession/tool"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		id        string
		stream    bool
		demoTools bool
	)

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Chat with the planner (one prompt when given, interactive otherwise)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(cmd.Context())
			if err != nil {
				return err
			}

			registry := tool.NewRegistry(func(o *tool.RegistryOptions) { o.Logger = a.logger })
			if demoTools {
				if err := registry.Register(demoToolset()...); err != nil {
					return err
				}
			}

			if id == "" {
				id = session.NewID()
			}

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			r := runner.New(m, func(o *runner.Options) {
				o.Instruction = runner.NewInstructionFromText(a.cfg.Model.Instructions)
				o.MaxModelCalls = a.cfg.Model.MaxSteps
				o.EnableStreaming = stream
				o.Separator = a.cfg.Session.Separator
				o.Tools = registry
				o.SessionStore = a.store
				o.Logger = a.logger
				o.Observer = progressPrinter(errOut, stream)
			})

			if len(args) > 0 {
				return a.answer(cmd.Context(), r, out, id, strings.Join(args, " "))
			}

			fmt.Fprintf(out, "tripchat v%s - session %s\n", version, id)
			fmt.Fprintln(out, "Type your request, or 'exit' to quit.")
			return a.loop(cmd.Context(), r, cmd.InOrStdin(), out, id)
		},
	}

	cmd.Flags().StringVar(&id, "session", "", "Resume the stored session with this id")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print the reply while it is generated")
	cmd.Flags().BoolVar(&demoTools, "demo-tools", false, "Register canned travel tools")

	return cmd
}

func (a *app) loop(ctx context.Context, r *runner.Runner, in io.Reader, out io.Writer, id string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "trip> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := a.answer(ctx, r, out, id, line); err != nil {
			a.logger.Error("Prompt failed", "session_id", id, "error", err.Error())
		}
	}
}

func (a *app) answer(ctx context.Context, r *runner.Runner, out io.Writer, id, prompt string) error {
	ctx, cancel := a.timeout(ctx)
	defer cancel()

	res, err := r.RunStored(ctx, id, a.cfg.Session.Window, prompt)
	if err != nil {
		return err
	}

	text := render.ReplacePhotos(ctx, res.Text, nil)
	rendered, err := render.Terminal(text, a.cfg.Render.Width, a.cfg.Render.Style)
	if err != nil {
		rendered = text
	}
	fmt.Fprintln(out, rendered)
	a.logger.Debug("Prompt answered", "session_id", id, "model_calls", res.ModelCalls, "tokens", res.Usage.TotalTokens)
	return nil
}

// progressPrinter shows the status pills whenever they change and, when
// streaming, the reply text as it arrives.
func progressPrinter(w io.Writer, stream bool) runner.Observer {
	var last string
	return func(step runner.Step) {
		if step.Partial {
			if stream {
				fmt.Fprint(w, step.Text)
			}
			return
		}
		if step.Status == last {
			return
		}
		last = step.Status
		labels := step.Labels
		if len(labels) == 0 {
			labels = []string{step.Status}
		}
		fmt.Fprintln(w, render.Pills(labels))
	}
}
