package config

import (
	"os"
	"strconv"
)

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "SCENEFORGE_WORKERS",
		apply: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.WorkerCount = n
			}
		},
	},
	{
		envVar: "SCENEFORGE_UNITS_PER_WORKER",
		apply: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.UnitsPerWorker = n
			}
		},
	},
	{
		envVar: "SCENEFORGE_POLL_INTERVAL",
		apply: func(c *Config, v string) {
			c.Poll.Interval = v
		},
	},
	{
		envVar: "SCENEFORGE_BASE_URL",
		apply: func(c *Config, v string) {
			c.Replicate.BaseURL = v
		},
	},
	{
		envVar: "SCENEFORGE_WEBHOOK_URL",
		apply: func(c *Config, v string) {
			c.Notify.WebhookURL = v
		},
	},
	{
		envVar: "SCENEFORGE_STORE_PATH",
		apply: func(c *Config, v string) {
			c.Store.Path = v
		},
	},
	{
		envVar: "SCENEFORGE_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
