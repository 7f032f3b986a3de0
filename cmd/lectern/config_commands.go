package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the lectern configuration",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample config.toml",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("inspect %s: %w", target, statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			printSetupHints(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write config.toml (default ~/.config/lectern/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

// printSetupHints lists the credentials the sample leaves blank, skipping
// the ones already exported in the environment.
func printSetupHints(out io.Writer) {
	var missing []string
	if os.Getenv("LLM_API_KEY") == "" && os.Getenv("OPENROUTER_API_KEY") == "" {
		missing = append(missing, "[llm] api_key (or LLM_API_KEY) for the A1/A2/B/D stages")
	}
	if os.Getenv("XUNFEI_APPID") == "" || os.Getenv("XUNFEI_SECRET_KEY") == "" {
		missing = append(missing, "[asr] app_id and secret_key (or XUNFEI_APPID / XUNFEI_SECRET_KEY) for video sessions")
	}
	if len(missing) == 0 {
		fmt.Fprintln(out, "Credentials found in the environment; run `lectern check` next.")
		return
	}
	fmt.Fprintln(out, "Before running lectern, set:")
	for _, m := range missing {
		fmt.Fprintf(out, "  - %s\n", m)
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and summarize each section",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			source := path
			if !exists {
				source += " (not found, defaults used)"
			}
			fmt.Fprintf(out, "Config: %s\n\n", source)
			fmt.Fprintln(out, renderTable(out, []string{"Section", "Setting", "Value"}, configSummary(cfg), nil))
			fmt.Fprintf(out, "Speech recognition configured: %s\n", yesNo(cfg.ASRConfigured()))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func configSummary(cfg *config.Config) [][]string {
	return [][]string{
		{"paths", "state_dir", cfg.Paths.StateDir},
		{"paths", "work_dir", cfg.Paths.WorkDir},
		{"paths", "log_dir", cfg.Paths.LogDir},
		{"api", "bind", cfg.API.Bind},
		{"api", "token", setOrUnset(cfg.API.Token)},
		{"asr", "credentials", setOrUnset(cfg.ASR.AppID + cfg.ASR.SecretKey)},
		{"asr", "max_polls", strconv.Itoa(cfg.ASR.MaxPolls)},
		{"media", "ytdlp_binary", cfg.Media.YTDLPBinary},
		{"media", "ffmpeg_binary", cfg.Media.FFmpegBinary},
		{"llm", "model", cfg.LLM.Model},
		{"llm", "base_url", cfg.LLM.BaseURL},
		{"llm", "api_key", setOrUnset(cfg.LLM.APIKey)},
		{"workflow", "shutdown_grace_seconds", strconv.Itoa(cfg.Workflow.ShutdownGraceSeconds)},
		{"logging", "format/level", cfg.Logging.Format + "/" + cfg.Logging.Level},
	}
}

func setOrUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "unset"
	}
	return "set"
}
