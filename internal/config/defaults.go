package config

const (
	DefaultWorkerCount     = 5
	DefaultUnitsPerWorker  = 2
	DefaultPollInterval    = "5s"
	DefaultPollMaxAttempts = 60
	DefaultBaseURL         = "https://api.replicate.com"
	DefaultTokenEnv        = "REPLICATE_API_TOKEN"
	DefaultStorePath       = ".sceneforge/runs.db"
	DefaultLogLevel        = "info"
)

// DefaultProviders is the built-in backend registry. Order is fallback
// order: fast cheap backends first, stable expensive ones last.
func DefaultProviders() []ProviderEntry {
	return []ProviderEntry{
		{
			ID:           "minimax",
			Model:        "minimax/video-01",
			MaxDuration:  6,
			PricePerUnit: 0.10,
			Capabilities: []string{"fast"},
		},
		{
			ID:           "kling",
			Model:        "kwaivgi/kling-v1.6-standard",
			MaxDuration:  10,
			PricePerUnit: 0.12,
			Capabilities: []string{"fast"},
		},
		{
			ID:           "haiper",
			Model:        "haiper-ai/haiper-video-2",
			MaxDuration:  8,
			PricePerUnit: 0.15,
			Capabilities: []string{"fast", "stable"},
		},
		{
			ID:           "luma",
			Model:        "luma/ray-flash-2-540p",
			MaxDuration:  10,
			PricePerUnit: 0.18,
			Capabilities: []string{"stable"},
		},
		{
			ID:           "gen3",
			Model:        "stability-ai/stable-video-diffusion",
			MaxDuration:  10,
			PricePerUnit: 0.25,
			Capabilities: []string{"stable"},
		},
	}
}

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		WorkerCount:    DefaultWorkerCount,
		UnitsPerWorker: DefaultUnitsPerWorker,
		Poll: PollConfig{
			Interval:    DefaultPollInterval,
			MaxAttempts: DefaultPollMaxAttempts,
		},
		Providers: DefaultProviders(),
		Replicate: ReplicateConfig{
			BaseURL:  DefaultBaseURL,
			TokenEnv: DefaultTokenEnv,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		LogLevel: DefaultLogLevel,
	}
}
