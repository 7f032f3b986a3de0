package config

const (
	defaultConfigPath           = "~/.config/lectern/config.toml"
	defaultStateDir             = "~/.local/share/lectern"
	defaultLogDir               = "~/.local/share/lectern/logs"
	defaultAPIBind              = "127.0.0.1:7600"
	defaultASRBaseURL           = "https://raasr.xfyun.cn/api"
	defaultASRSliceSizeMB       = 10
	defaultASRPollInterval      = 30
	defaultASRMaxPolls          = 120
	defaultASRRequestTimeout    = 60
	defaultASRLanguage          = "cn"
	defaultFFmpegBinary         = "ffmpeg"
	defaultYTDLPBinary          = "yt-dlp"
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-2.5-flash"
	defaultLLMReferer           = "https://github.com/lectern/lectern"
	defaultLLMTitle             = "lectern"
	defaultLLMTimeoutSeconds    = 120
	defaultLLMRetryAttempts     = 3
	defaultShutdownGraceSeconds = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		ASR: ASR{
			BaseURL:               defaultASRBaseURL,
			SliceSizeMB:           defaultASRSliceSizeMB,
			PollIntervalSeconds:   defaultASRPollInterval,
			MaxPolls:              defaultASRMaxPolls,
			RequestTimeoutSeconds: defaultASRRequestTimeout,
			Language:              defaultASRLanguage,
		},
		Media: Media{
			FFmpegBinary: defaultFFmpegBinary,
			YTDLPBinary:  defaultYTDLPBinary,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		Workflow: Workflow{
			ShutdownGraceSeconds: defaultShutdownGraceSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
