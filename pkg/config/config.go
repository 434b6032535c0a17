// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"time"

	"github.com/caarlos0/env"
)

// MaxHumanSearchTimeoutMs is the hard ceiling on the AI-fallback deadline.
const MaxHumanSearchTimeoutMs = 180000

type Config struct {
	HumanSearchTimeoutMs   int     `env:"HUMAN_SEARCH_TIMEOUT_MS"  envDefault:"45000"          envDocs:"AI-fallback deadline from start-search in ms (capped at 180000)"`
	SearchIntervalMs       int     `env:"SEARCH_INTERVAL_MS"       envDefault:"3000"           envDocs:"continuous-scan tick in ms"`
	MinSearchAttempts      int     `env:"MIN_SEARCH_ATTEMPTS"      envDefault:"10"             envDocs:"scan attempts before considering early AI fallback on quiet rounds"`
	SkillMatchingThreshold float64 `env:"SKILL_MATCHING_THRESHOLD" envDefault:"1.5"            envDocs:"skill window radius for human pairing"`
	MaxQueueSize           int     `env:"MAX_QUEUE_SIZE"           envDefault:"1000"           envDocs:"reject enqueue above this per-round queue size"`
	HeartbeatIntervalMs    int     `env:"HEARTBEAT_INTERVAL_MS"    envDefault:"30000"          envDocs:"dispatcher heartbeat tick in ms"`
	ConnectionTimeoutMs    int     `env:"CONNECTION_TIMEOUT_MS"    envDefault:"60000"          envDocs:"push-session staleness threshold in ms"`
	RedisAddr              string  `env:"REDIS_ADDR"               envDefault:"localhost:6379" envDocs:"shared-store address"`
	RedisPassword          string  `env:"REDIS_PASSWORD"           envDefault:""               envDocs:"shared-store password"`
	RedisDB                int     `env:"REDIS_DB"                 envDefault:"0"              envDocs:"shared-store database index"`
	DatabaseURL            string  `env:"DATABASE_URL"             envDefault:""               envDocs:"postgres DSN for the persistence mirror (empty disables mirroring)"`
	ListenAddr             string  `env:"LISTEN_ADDR"              envDefault:":8090"          envDocs:"http/websocket listen address"`
	ZipkinURL              string  `env:"ZIPKIN_URL"               envDefault:""               envDocs:"zipkin collector endpoint (empty disables tracing export)"`
}

// ParseConfig reads the configuration from the environment and applies the
// documented caps.
func ParseConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.HumanSearchTimeoutMs > MaxHumanSearchTimeoutMs {
		cfg.HumanSearchTimeoutMs = MaxHumanSearchTimeoutMs
	}

	return cfg, nil
}

// Default returns the configuration with every env default applied, used by
// tests that tune individual knobs.
func Default() *Config {
	return &Config{
		HumanSearchTimeoutMs:   45000,
		SearchIntervalMs:       3000,
		MinSearchAttempts:      10,
		SkillMatchingThreshold: 1.5,
		MaxQueueSize:           1000,
		HeartbeatIntervalMs:    30000,
		ConnectionTimeoutMs:    60000,
		RedisAddr:              "localhost:6379",
		ListenAddr:             ":8090",
	}
}

func (c *Config) HumanSearchTimeout() time.Duration {
	return time.Duration(c.HumanSearchTimeoutMs) * time.Millisecond
}

func (c *Config) SearchInterval() time.Duration {
	return time.Duration(c.SearchIntervalMs) * time.Millisecond
}

func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}

func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutMs) * time.Millisecond
}
