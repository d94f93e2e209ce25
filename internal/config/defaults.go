package config

const (
	defaultDataDir        = "~/.local/share/vitae/data"
	defaultLogDir         = "~/.local/share/vitae/logs"
	defaultMaxWorkers     = 4
	defaultMetadataMarker = "profile"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLLMBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel       = "qwen/qwen2.5-vl-72b-instruct"
	defaultLLMTimeout     = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Ingest: Ingest{
			MaxWorkers:     defaultMaxWorkers,
			MetadataMarker: defaultMetadataMarker,
			Extensions:     []string{".pdf", ".docx"},
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
