package core

import (
	"os"
	"path/filepath"
	"sync"
)

type Paths struct {
	HomeDir       string
	DataDir       string
	ConfigDir     string
	ConfigFile    string
	LogFile       string
	AnalyticsFile string
}

const appName = "rewards"

var (
	defaultPaths     *Paths
	defaultPathsErr  error
	defaultPathsOnce sync.Once
)

// PathsFor lays out the rewards files under homeDir
func PathsFor(homeDir string) *Paths {
	dataDir := filepath.Join(homeDir, ".local", "share", appName)
	configDir := filepath.Join(homeDir, ".config", appName)
	return &Paths{
		HomeDir:       homeDir,
		DataDir:       dataDir,
		ConfigDir:     configDir,
		ConfigFile:    filepath.Join(configDir, "config.yaml"),
		LogFile:       filepath.Join(dataDir, "rewards.log"),
		AnalyticsFile: filepath.Join(dataDir, "analytics.db"),
	}
}

// DefaultPaths resolves the paths under the user's home directory and makes
// sure the data directory exists
func DefaultPaths() (*Paths, error) {
	defaultPathsOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			defaultPathsErr = err
			return
		}
		p := PathsFor(homeDir)
		if err := os.MkdirAll(p.DataDir, 0755); err != nil {
			defaultPathsErr = err
			return
		}
		defaultPaths = p
	})
	return defaultPaths, defaultPathsErr
}
