package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tripsession"
	"github.com/hupe1980/tripsession/render"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		id   string
		save bool
	)

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay newline delimited turns into a session (- reads stdin)",
		Long: `Replay reads one JSON turn per line ({"role": ..., "parts": [...]}) and
appends each through the history replay path. Malformed or out of order turns
become diagnostic model turns. After every line the pending status labels and
the display text are printed, the way a polling UI would show them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			m, err := a.manager(id, func(o *tripsession.Options) { o.Ingestion.Replay = true })
			if err != nil {
				return err
			}

			if err := replay(m, in, cmd.OutOrStdout()); err != nil {
				return err
			}

			if save {
				if err := m.Save(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "saved session %s\n", m.ID())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "session", "", "Session id used with --save")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the replayed session")

	return cmd
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func replay(m *tripsession.Manager, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	n := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		n++
		if err := m.AppendTurn(line); err != nil {
			return err
		}

		labels, err := m.PendingLabels()
		if err != nil {
			return err
		}
		text, err := m.DisplayText()
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "#%d", n)
		if len(labels) > 0 {
			fmt.Fprintf(out, " %s", render.Pills(labels))
		}
		fmt.Fprintln(out)
		if text != "" {
			fmt.Fprintln(out, text)
		}
	}
	return scanner.Err()
}
