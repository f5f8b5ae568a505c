// Package config resolves locknote settings from the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDB            = "LOCKNOTE_DB"
	EnvMirror        = "LOCKNOTE_MIRROR"
	EnvLogLevel      = "LOCKNOTE_LOG_LEVEL"
	EnvCheckInterval = "LOCKNOTE_CHECK_INTERVAL"
	EnvPassword      = "LOCKNOTE_PASSWORD"

	DefaultDBPath        = "~/.locknote/notes.db"
	DefaultLogLevel      = "warn"
	DefaultCheckInterval = 10 * time.Second
)

// Config holds process configuration. Application settings that users
// change at runtime live in the note store, not here.
type Config struct {
	DBPath        string
	MirrorDir     string
	LogLevel      string
	CheckInterval time.Duration
}

// Load reads an optional .env file from the working directory and then
// the environment. Variables already set in the environment win over .env.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	cfg := Config{
		DBPath:        DefaultDBPath,
		LogLevel:      DefaultLogLevel,
		CheckInterval: DefaultCheckInterval,
	}
	if v := os.Getenv(EnvDB); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvMirror); v != "" {
		cfg.MirrorDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvCheckInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CheckInterval = d
		}
	}
	cfg.DBPath = ExpandHome(cfg.DBPath)
	cfg.MirrorDir = ExpandHome(cfg.MirrorDir)
	return cfg
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// PasswordFromEnv returns LOCKNOTE_PASSWORD, or nil when unset.
func PasswordFromEnv() []byte {
	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil
	}
	return []byte(password)
}
