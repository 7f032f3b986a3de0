package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/api"
	"lectern/internal/pipeline"
	"lectern/internal/session"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		videoURL    string
		textFile    string
		text        string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create a session and process it in the foreground",
		Long: "Create a session from a video URL or a transcript and run it to completion.\n" +
			"Pass exactly one of --url, --text, or --text-file (\"-\" reads stdin).",
		RunE: func(cmd *cobra.Command, args []string) error {
			transcriptText, err := readTranscript(cmd, text, textFile)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(false)
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			mgr, err := buildManager(cfg, store, logger)
			if err != nil {
				return err
			}

			sess, src, err := store.CreateSession(cmd.Context(), session.NewSession{
				VideoURL:          videoURL,
				Title:             title,
				SourceDescription: description,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s created\n", sess.ID)

			runErr := mgr.RunSync(cmd.Context(), pipeline.Request{
				SessionID:         sess.ID,
				SourceID:          src.ID,
				VideoURL:          videoURL,
				TranscriptText:    transcriptText,
				Title:             strings.TrimSpace(title),
				SourceDescription: strings.TrimSpace(description),
			})

			view, err := api.NewSessionService(store, nil).Status(cmd.Context(), sess.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Status: %s\n", view.Status)
			if view.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", view.ErrorMessage)
			}
			if runErr != nil {
				return fmt.Errorf("session %s failed: %w", sess.ID, runErr)
			}
			fmt.Fprintf(out, "Inspect results with: lectern show %s\n", sess.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoURL, "url", "", "Video URL to download and transcribe")
	cmd.Flags().StringVar(&text, "text", "", "Raw transcript text")
	cmd.Flags().StringVar(&textFile, "text-file", "", "Read the raw transcript from a file (\"-\" for stdin)")
	cmd.Flags().StringVar(&title, "title", "", "Initial video title")
	cmd.Flags().StringVar(&description, "description", "", "Initial source description")
	cmd.MarkFlagsMutuallyExclusive("text", "text-file")
	return cmd
}

func readTranscript(cmd *cobra.Command, text, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return text, nil
	}
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read transcript from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(data), nil
}
