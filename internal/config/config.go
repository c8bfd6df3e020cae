package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Game struct {
		GraceDelay       string `yaml:"grace_delay"`
		DefaultTimeLimit int    `yaml:"default_time_limit"`
		AllowLateJoin    *bool  `yaml:"allow_late_join"`
		CodeAttempts     int    `yaml:"code_attempts"`
	} `yaml:"game"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty/invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// AllowLateJoin resolves the late-join policy; joins are permitted mid-game
// unless the config says otherwise.
func (c Config) AllowLateJoin() bool {
	if c.Game.AllowLateJoin == nil {
		return true
	}
	return *c.Game.AllowLateJoin
}
