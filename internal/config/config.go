// Package config parses process configuration from flags, with
// environment-variable overrides applied on top.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds the engine's process-level settings.
type Config struct {
	StacksDir    string
	DataDir      string
	RuntimeBin   string        // path/name of the `container` CLI binary
	Mock         bool          // use the in-memory fake driver instead of spawning RuntimeBin
	PollInterval time.Duration // Observer poll cadence
}

// Parse reads flags, then applies CONTAINERSTACK_*-prefixed env var
// overrides on top of whatever the flags set.
func Parse() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.StacksDir, "stacks-dir", "/opt/stacks", "path to the stacks directory")
	flag.StringVar(&cfg.DataDir, "data-dir", "./data", "path to the data directory (lock files)")
	flag.StringVar(&cfg.RuntimeBin, "runtime-bin", "container", "name or path of the runtime CLI binary")
	flag.BoolVar(&cfg.Mock, "mock", false, "use the in-memory fake runtime driver instead of spawning the real CLI")
	pollSeconds := flag.Int("poll-interval", 5, "observer poll interval, in seconds")
	flag.Parse()

	cfg.PollInterval = time.Duration(*pollSeconds) * time.Second

	if v := os.Getenv("CONTAINERSTACK_STACKS_DIR"); v != "" {
		cfg.StacksDir = v
	}
	if v := os.Getenv("CONTAINERSTACK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CONTAINERSTACK_RUNTIME_BIN"); v != "" {
		cfg.RuntimeBin = v
	}
	if v := os.Getenv("CONTAINERSTACK_MOCK"); v == "1" || v == "true" {
		cfg.Mock = true
	}
	if v := os.Getenv("CONTAINERSTACK_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollInterval = time.Duration(n) * time.Second
		}
	}

	return cfg
}
