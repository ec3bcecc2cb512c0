// Package settings reads user-level configuration from
// $XDG_CONFIG_HOME/dumpty/config.yaml and DUMPTY_* environment variables.
// A missing file is not an error; every key has a default.
package settings

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/dumpty-dev/dumpty/internal/repo"
)

const (
	keyCacheDir            = "cache_dir"
	keyCloneTimeoutSeconds = "clone_timeout_seconds"
	keyDefaultAgents       = "default_agents"
)

// Dir returns the settings directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "dumpty")
}

// FilePath returns the settings file path.
func FilePath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load initializes viper from the settings file and environment. The file
// is optional.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("DUMPTY")
	viper.AutomaticEnv()

	viper.SetDefault(keyCloneTimeoutSeconds, int(repo.DefaultTimeout/time.Second))

	_ = viper.ReadInConfig()
}

// CacheDir returns the worktree cache root.
func CacheDir() string {
	if dir := viper.GetString(keyCacheDir); dir != "" {
		return dir
	}
	return repo.DefaultCacheDir()
}

// CloneTimeout returns the per-repository clone timeout.
func CloneTimeout() time.Duration {
	seconds := viper.GetInt(keyCloneTimeoutSeconds)
	if seconds <= 0 {
		return repo.DefaultTimeout
	}
	return time.Duration(seconds) * time.Second
}

// DefaultAgents returns the agents to target when none are given on the
// command line and none are detected in the project.
func DefaultAgents() []string {
	return viper.GetStringSlice(keyDefaultAgents)
}
