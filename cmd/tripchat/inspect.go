package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tripsession/render"
)

func newShowCmd(a *app) *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the latest reply of a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager("")
			if err != nil {
				return err
			}
			if err := m.Load(cmd.Context(), args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if labels, err := m.PendingLabels(); err == nil && len(labels) > 0 {
				fmt.Fprintln(out, render.Pills(labels))
			}

			text, err := m.DisplayText()
			if err != nil {
				return err
			}

			var resolver render.PhotoResolver
			if key := a.v.GetString("maps-api-key"); key != "" {
				resolver = &render.PlacesResolver{APIKey: key}
			}

			if html {
				doc, err := render.HTML(cmd.Context(), text, resolver)
				if err != nil {
					return err
				}
				fmt.Fprint(out, doc)
				return nil
			}

			rendered, err := render.Terminal(render.ReplacePhotos(cmd.Context(), text, resolver), a.cfg.Render.Width, a.cfg.Render.Style)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Render as HTML instead of terminal markdown")
	cmd.Flags().String("maps-api-key", "", "Google Maps API key used to resolve place photos")
	cobra.CheckErr(a.v.BindPFlag("maps-api-key", cmd.Flags().Lookup("maps-api-key")))

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Print the serialized form of a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager("")
			if err != nil {
				return err
			}
			if err := m.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			data, err := m.Serialize()
			if err != nil {
				return err
			}
			if pretty {
				var v any
				if err := json.Unmarshal(data, &v); err != nil {
					return err
				}
				if data, err = json.MarshalIndent(v, "", "  "); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")

	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTURNS\tWINDOW\tCREATED\tUPDATED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", info.ID, info.TurnCount, info.Window, formatTime(info.CreatedAt), formatTime(info.UpdatedAt))
			}
			return tw.Flush()
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
