package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/api"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		statuses []string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateFormat(format, "table", "json", "yaml")
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := api.NewSessionService(store, nil).List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			switch format {
			case "json":
				return writeJSON(cmd, api.SessionListResponse{Items: items})
			case "yaml":
				return writeYAML(cmd, api.SessionListResponse{Items: items})
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No sessions")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{item.SessionID, item.Status, item.Phase, item.CreatedAt, item.ErrorMessage})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Session", "Status", "Phase", "Created", "Error"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (repeatable or comma-separated)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, or yaml")
	return cmd
}
