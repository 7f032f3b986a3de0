package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/api"
	"lectern/internal/config"
)

const statusTimeout = 3 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and session counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			status, daemonErr := fetchDaemonStatus(cmd.Context(), cfg)
			if daemonErr != nil {
				store, err := ctx.openStore()
				if err != nil {
					return err
				}
				defer store.Close()
				counts, err := api.NewSessionService(store, nil).Counts(cmd.Context())
				if err != nil {
					return err
				}
				status = api.DaemonStatus{
					DatabasePath: store.Path(),
					LockFilePath: cfg.DaemonLockPath(),
					Counts:       counts,
				}
			}

			if asJSON {
				return writeJSON(cmd, status)
			}
			renderStatus(cmd.OutOrStdout(), status, daemonErr)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func fetchDaemonStatus(ctx context.Context, cfg *config.Config) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	reqCtx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+cfg.API.Bind+"/api/status", nil)
	if err != nil {
		return status, err
	}
	if cfg.API.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.API.Token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return status, fmt.Errorf("daemon unreachable at %s", cfg.API.Bind)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return status, fmt.Errorf("daemon status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decode daemon status: %w", err)
	}
	return status, nil
}

func renderStatus(out io.Writer, status api.DaemonStatus, daemonErr error) {
	if daemonErr != nil {
		fmt.Fprintf(out, "Daemon:   not running (%v)\n", daemonErr)
	} else {
		fmt.Fprintf(out, "Daemon:   running (pid %d)\n", status.PID)
		wf := status.Workflow
		fmt.Fprintf(out, "Runs:     %d active, %d started, %d succeeded, %d failed\n",
			len(wf.Active), wf.Started, wf.Succeeded, wf.Failed)
		if wf.LastError != "" {
			fmt.Fprintf(out, "Last error: %s (%s)\n", wf.LastError, wf.LastSession)
		}
	}
	fmt.Fprintf(out, "Database: %s\n", status.DatabasePath)

	if len(status.Counts) > 0 {
		keys := make([]string, 0, len(status.Counts))
		for k := range status.Counts {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, strconv.Itoa(status.Counts[k])})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(out, []string{"Status", "Sessions"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	if len(status.Dependencies) > 0 {
		rows := make([][]string, 0, len(status.Dependencies))
		for _, dep := range status.Dependencies {
			rows = append(rows, []string{dep.Name, yesNo(dep.Available), dep.Detail})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(out, []string{"Dependency", "Available", "Detail"}, rows, nil))
	}
}
