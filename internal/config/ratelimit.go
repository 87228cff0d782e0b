package config

import "time"

// RateLimitConfig bounds how many transaction requests a single client may
// issue per Window.  Counters live in Redis under Prefix.
type RateLimitConfig struct {
    Enabled bool
    Max     int
    Window  time.Duration
    Prefix  string
}

func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Max:     envInt("RATE_LIMIT_MAX", 10),
        Window:  envDur("RATE_LIMIT_WINDOW", time.Minute),
        Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
    }
    if cfg.Max < 1 { cfg.Max = 1 }
    if cfg.Window < time.Second { cfg.Window = time.Second }
    return cfg
}
