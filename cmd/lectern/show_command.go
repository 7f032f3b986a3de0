package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"lectern/internal/api"
)

// sessionExport bundles everything known about one session.
type sessionExport struct {
	Session *api.Session      `json:"session"`
	Source  *api.Source       `json:"source,omitempty"`
	Outputs []api.StageOutput `json:"outputs"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session with its history, source and stage outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateFormat(format, "text", "json", "yaml")
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			svc := api.NewSessionService(store, nil)
			view, err := svc.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			export := sessionExport{Session: view}
			if export.Source, err = svc.Source(cmd.Context(), args[0]); err != nil {
				return err
			}
			outputs, err := svc.Outputs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			export.Outputs = outputs.Outputs

			switch format {
			case "json":
				return writeJSON(cmd, export)
			case "yaml":
				return writeYAML(cmd, export)
			}
			renderSession(cmd.OutOrStdout(), export)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, or yaml")
	return cmd
}

func renderSession(out io.Writer, export sessionExport) {
	sess := export.Session
	fmt.Fprintf(out, "Session: %s\n", sess.SessionID)
	fmt.Fprintf(out, "Status:  %s (%s)\n", sess.Status, sess.Phase)
	if sess.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:   %s\n", sess.ErrorMessage)
	}
	if src := export.Source; src != nil {
		fmt.Fprintf(out, "Title:   %s\n", src.VideoTitle)
		if src.VideoURL != "" {
			fmt.Fprintf(out, "URL:     %s\n", src.VideoURL)
		}
		fmt.Fprintf(out, "Segments: %d  Key information: %s\n", src.SegmentCount, yesNo(src.HasExtractedKeyInformation))
	}

	rows := make([][]string, 0, len(sess.History))
	for _, h := range sess.History {
		rows = append(rows, []string{h.RecordedAt, h.Status, h.Message})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(out, []string{"Recorded", "Status", "Message"}, rows, nil))

	if len(export.Outputs) == 0 {
		return
	}
	outputRows := make([][]string, 0, len(export.Outputs))
	for _, o := range export.Outputs {
		outputRows = append(outputRows, []string{o.Stage, strconv.Itoa(len(o.Payload)), o.CreatedAt})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(out, []string{"Stage", "Bytes", "Created"}, outputRows, []columnAlignment{alignLeft, alignRight, alignLeft}))

	if sess.FinalResults != nil && len(sess.FinalResults.Note) > 0 {
		var note struct {
			Markdown string `json:"noteMarkdownContent"`
		}
		if err := json.Unmarshal(sess.FinalResults.Note, &note); err == nil && note.Markdown != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, note.Markdown)
		}
	}
}
