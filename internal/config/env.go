package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	EnvLogLevel     = "REWARDS_LOG_LEVEL"
	EnvCleanLogFile = "REWARDS_CLEAN_LOG_FILE"
	EnvAnalytics    = "REWARDS_ANALYTICS"
	EnvProbe        = "REWARDS_PROBE"
)

// LookupFunc matches os.LookupEnv
type LookupFunc func(key string) (string, bool)

// ApplyEnv returns c with the REWARDS_* environment overrides applied.
// Unparseable booleans are ignored.
func (c Config) ApplyEnv(lookup LookupFunc) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if b, ok := lookupBool(lookup, EnvCleanLogFile); ok {
		c.CleanLogFile = b
	}
	if b, ok := lookupBool(lookup, EnvAnalytics); ok {
		c.Analytics.Enabled = b
	}
	if b, ok := lookupBool(lookup, EnvProbe); ok {
		c.Engine.ProbeEnabled = b
	}
	return c
}

func lookupBool(lookup LookupFunc, key string) (bool, bool) {
	v, ok := lookup(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false
	}
	return b, true
}
